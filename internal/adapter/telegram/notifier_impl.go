package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// MaxMessageLength is the Bot API limit for one sendMessage text.
const MaxMessageLength = 4096

// Notifier sends messages to one chat through the Telegram Bot API.
type Notifier struct {
	client *resty.Client
	token  string
	chatID string
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// New creates a Notifier. apiURL is normally https://api.telegram.org.
func New(apiURL, token, chatID string, timeout time.Duration) *Notifier {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(apiURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	return &Notifier{client: client, token: token, chatID: chatID}
}

// Notify sends message, split into several messages when it exceeds
// MaxMessageLength. It stops at the first part that fails.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	for _, part := range Split(message, MaxMessageLength) {
		if err := n.send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	var result apiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: n.chatID, Text: text}).
		SetResult(&result).
		SetError(&result).
		Post("/bot" + n.token + "/sendMessage")
	if err != nil {
		// The request URL carries the token.
		return fmt.Errorf("telegram sendMessage: %s", n.redact(err.Error()))
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode(), n.redact(result.Description))
	}
	return nil
}

func (n *Notifier) redact(s string) string {
	if n.token == "" {
		return s
	}
	return strings.ReplaceAll(s, n.token, "<redacted>")
}

// Split breaks text into parts of at most limit runes, cutting at line
// breaks where possible. Lines longer than limit are cut mid-line.
func Split(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var parts []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, string(current))
			current = current[:0]
		}
	}

	for i, line := range strings.Split(text, "\n") {
		r := []rune(line)
		if i > 0 && len(current) > 0 {
			if len(current)+1+len(r) <= limit {
				current = append(current, '\n')
				current = append(current, r...)
				continue
			}
			flush()
		}
		for len(r) > limit {
			flush()
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		current = append(current, r...)
	}
	flush()
	return parts
}
