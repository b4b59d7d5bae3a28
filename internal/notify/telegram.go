// Package notify dispatches alert notifications to an external channel.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/retailx/theft-monitor/internal/logger"
)

// Dispatcher sends an alert snapshot with a caption. Send makes at most
// one attempt; failure is reported through the return value and is
// never fatal to the caller.
type Dispatcher interface {
	Send(ctx context.Context, imagePath, caption string) bool
	Channel() string
}

// Telegram dispatches alerts via the Telegram bot sendPhoto API.
type Telegram struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegram creates a Telegram dispatcher. Empty credentials disable
// dispatch: Send logs once per call and returns false.
func NewTelegram(token, chatID string, timeout time.Duration) *Telegram {
	return &Telegram{
		apiBase: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
	}
}

// Send posts the snapshot and caption. Returns true only on a 2xx
// response; all failures are logged and swallowed.
func (t *Telegram) Send(ctx context.Context, imagePath, caption string) bool {
	if t.token == "" || t.chatID == "" {
		logger.Warn("Notify", "Telegram disabled or missing config, dropping alert")
		return false
	}

	photo, err := os.Open(imagePath)
	if err != nil {
		logger.Error("Notify", "Open snapshot failed: %v", err)
		return false
	}
	defer photo.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("chat_id", t.chatID); err != nil {
		logger.Error("Notify", "Build request failed: %v", err)
		return false
	}
	if err := writer.WriteField("caption", caption); err != nil {
		logger.Error("Notify", "Build request failed: %v", err)
		return false
	}
	part, err := writer.CreateFormFile("photo", "snapshot.jpg")
	if err != nil {
		logger.Error("Notify", "Build request failed: %v", err)
		return false
	}
	if _, err := io.Copy(part, photo); err != nil {
		logger.Error("Notify", "Read snapshot failed: %v", err)
		return false
	}
	writer.Close()

	url := fmt.Sprintf("%s/bot%s/sendPhoto", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		logger.Error("Notify", "Build request failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Warn("Notify", "Telegram send failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("Notify", "Telegram error: status %d: %s", resp.StatusCode, detail)
		return false
	}

	logger.Info("Notify", "Telegram alert sent")
	return true
}

// Channel returns the destination chat identifier.
func (t *Telegram) Channel() string {
	return t.chatID
}
