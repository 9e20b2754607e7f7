package main

import (
	"github.com/SizeMattersAI/eliza-agent/internal/server"
	"github.com/SizeMattersAI/eliza-agent/internal/util"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
