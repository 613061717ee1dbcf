// Package telegram is a minimal client for the bot API's sendMessage call.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var ErrNotConfigured = errors.New("telegram: bot token not configured")

type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageReq struct {
	ChatID              int64  `json:"chat_id"`
	Text                string `json:"text"`
	DisableNotification bool   `json:"disable_notification"`
}

type apiResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts text to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.token == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(sendMessageReq{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.base, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}
	var out apiResp
	if err := json.Unmarshal(raw, &out); err != nil || !out.OK {
		return fmt.Errorf("telegram: sendMessage status %d: %s", res.StatusCode, out.Description)
	}
	return nil
}

// SendWelcome greets a chat that has just been linked to an account.
func (c *Client) SendWelcome(ctx context.Context, chatID int64, name string) error {
	text := fmt.Sprintf("Welcome to NUSFitness %s! Your connection to @NUSFitness_Bot has been successful! Press /start to begin!", name)
	return c.SendMessage(ctx, chatID, text)
}
