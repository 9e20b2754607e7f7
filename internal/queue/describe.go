package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/SizeMattersAI/eliza-agent/internal/store"
	"github.com/SizeMattersAI/eliza-agent/pkg/describe"
	"github.com/SizeMattersAI/eliza-agent/pkg/logger"
)

// DescribeJobMsg is the payload on the describe queue.
type DescribeJobMsg struct {
	JobID    string `json:"job_id"`
	ImageURL string `json:"image_url"`
}

// DescribeCompletedMsg is published on the pubsub exchange when a job
// finishes, success or failure.
type DescribeCompletedMsg struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Title  string `json:"title,omitempty"`
}

// ProcessDescribeMessage runs one describe job: produce the title and
// description, embed the description for similarity search and persist the
// result. A returned error sends the message through the retry queue.
func ProcessDescribeMessage(
	ctx context.Context,
	svc *describe.Service,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(DescribeJobMsg)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	s := store.New(conn)
	defer func() {
		if err == nil || data.JobID == "" {
			return
		}
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if updateErr := s.FailDescriptionJob(updateCtx, data.JobID, err.Error()); updateErr != nil {
			logger.Warn("[Queue] Failed to mark describe job as failed", "job_id", data.JobID, "err", updateErr)
		}
	}()

	result, err := svc.DescribeImage(ctx, data.ImageURL)
	if err != nil {
		return err
	}

	providerName := ""
	var embedding []float32
	if provider, providerErr := svc.Provider(ctx); providerErr == nil {
		providerName = provider.Name()
		embedding, err = provider.GenerateEmbedding(ctx, result.Description)
		if err != nil {
			logger.Warn("[Queue] Failed to embed description, storing without embedding", "job_id", data.JobID, "err", err)
			embedding = nil
			err = nil
		}
		if len(embedding) > 0 && len(embedding) != store.EmbeddingDim {
			logger.Debug("[Queue] Embedding dimension not supported, storing without embedding", "job_id", data.JobID, "dimensions", len(embedding))
			embedding = nil
		}
	}

	err = s.CompleteDescriptionJob(ctx, store.CompleteDescriptionJobParams{
		ID:          data.JobID,
		Title:       result.Title,
		Description: result.Description,
		Provider:    providerName,
		Embedding:   embedding,
	})
	if err != nil {
		return err
	}

	completed := DescribeCompletedMsg{
		JobID:  data.JobID,
		Status: store.JobCompleted,
		Title:  result.Title,
	}
	msgBytes, err := json.Marshal(completed)
	if err != nil {
		return err
	}
	if err := PublishTopic(ch, "describe.completed", msgBytes); err != nil {
		logger.Error("[Queue] Failed to publish completion event", "job_id", data.JobID, "err", err)
	}

	logger.Info("[Queue] Describe job completed", "job_id", data.JobID)
	return nil
}

// ResetJobStatusForRetry puts the affected job back into pending before a
// retried message is processed again.
func ResetJobStatusForRetry(
	ctx context.Context,
	conn *pgxpool.Pool,
	queueName string,
	msgBody []byte,
) {
	if queueName != DescribeQueue {
		return
	}

	var data DescribeJobMsg
	if err := json.Unmarshal(msgBody, &data); err != nil {
		return
	}
	if data.JobID == "" {
		return
	}
	_ = store.New(conn).ResetDescriptionJob(ctx, data.JobID)
}
