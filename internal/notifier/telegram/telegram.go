package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/replay/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if base, ok := cfg.Params["api_base"].(string); ok && base != "" {
		t.apiBase = strings.TrimSuffix(base, "/")
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	if t.apiBase == "" {
		t.apiBase = defaultAPIBase
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (t *Telegram) Notify(ctx context.Context, ev notifier.Event) error {
	return t.sendMessage(ctx, formatEvent(ev))
}

func formatEvent(ev notifier.Event) string {
	var sb strings.Builder

	if ev.Failed() {
		sb.WriteString(fmt.Sprintf("❌ *%s* run failed\n", ev.Strategy))
		if ev.Source != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", ev.Source))
		}
		sb.WriteString(fmt.Sprintf("Error: %s\n", ev.Error))
		sb.WriteString(fmt.Sprintf("Run: `%s`", ev.RunID))
		return sb.String()
	}

	emoji := "📈"
	if ev.TotalReturnPct < 0 {
		emoji = "📉"
	}
	sb.WriteString(fmt.Sprintf("%s *%s* on %s\n", emoji, ev.Strategy, ev.Symbol))
	sb.WriteString(fmt.Sprintf("Return: %+.2f%%\n", ev.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("Final value: $%s\n", humanize.FormatFloat("#,###.##", ev.FinalValue)))
	sb.WriteString(fmt.Sprintf("Sharpe: %.2f  Max DD: %.2f%%\n", ev.Sharpe, ev.MaxDrawdownPct))
	sb.WriteString(fmt.Sprintf("Trades: %d over %s bars\n", ev.Trades, humanize.Comma(int64(ev.Bars))))
	if ev.ReportLocation != "" {
		sb.WriteString(fmt.Sprintf("Report: %s\n", ev.ReportLocation))
	}
	for _, a := range ev.Alerts {
		sb.WriteString(fmt.Sprintf("⚠️ %s\n", a))
	}
	sb.WriteString(fmt.Sprintf("Run: `%s`", ev.RunID))

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
