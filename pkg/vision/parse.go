package vision

import "strings"

// SplitReply parses a model reply into a Description. The first line
// becomes the title and the remaining lines, rejoined by line breaks,
// become the description. A reply without a line break yields an empty
// description.
func SplitReply(reply string) Description {
	reply = strings.TrimSpace(reply)

	first, rest, found := strings.Cut(reply, "\n")
	if !found {
		return Description{Title: reply}
	}

	return Description{
		Title:       strings.TrimSpace(first),
		Description: strings.TrimSpace(rest),
	}
}
