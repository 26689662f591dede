// Package notify delivers alert, trade and strategy notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"capital-trader/internal/config"
	"capital-trader/internal/models"
	"capital-trader/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationChannel is one delivery target of a MultiNotifier.
type NotificationChannel interface {
	Notifier
	Name() string
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTrade    NotificationType = "trade"
	NotificationAlert    NotificationType = "alert"
	NotificationStrategy NotificationType = "strategy"
	NotificationError    NotificationType = "error"
)

// AlertTriggered builds the notification for an alert whose condition holds.
func AlertTriggered(alert models.Alert, price decimal.Decimal) Notification {
	return Notification{
		Type:  NotificationAlert,
		Title: fmt.Sprintf("Alert Triggered: %s", alert.Asset),
		Message: fmt.Sprintf("%s is %s, %s target %s",
			alert.Asset, utils.FormatCurrency(price), alert.Condition, utils.FormatCurrency(alert.Price)),
		Data: map[string]interface{}{
			"alert_id":      alert.ID,
			"account_id":    alert.AccountID,
			"asset":         alert.Asset,
			"condition":     string(alert.Condition),
			"target_price":  alert.Price.String(),
			"current_price": price.String(),
		},
	}
}

// TradeExecuted builds the notification for a confirmed trade.
func TradeExecuted(conf models.Confirmation) Notification {
	return Notification{
		Type:  NotificationTrade,
		Title: fmt.Sprintf("Trade Executed: %s %s", conf.Side, conf.Asset),
		Message: fmt.Sprintf("%s %s %s @ %s, balance %s",
			conf.Side, utils.FormatQuantity(conf.Quantity), conf.Asset,
			utils.FormatCurrency(conf.Price), utils.FormatCurrency(conf.Balance)),
		Data: map[string]interface{}{
			"confirmation_id": conf.ID,
			"account_id":      conf.AccountID,
			"asset":           conf.Asset,
			"side":            string(conf.Side),
			"quantity":        conf.Quantity.String(),
			"price":           conf.Price.String(),
			"balance":         conf.Balance.String(),
		},
		Timestamp: conf.ExecutedAt,
	}
}

// StrategyCompleted builds the notification for a finished strategy batch.
func StrategyCompleted(res models.StrategyResult) Notification {
	return Notification{
		Type:  NotificationStrategy,
		Title: fmt.Sprintf("Strategy %s: %s", res.Status, res.AccountID),
		Message: fmt.Sprintf("%d executed, %d skipped, %d failed",
			len(res.Trades), len(res.Skipped), len(res.Failed)),
		Data: map[string]interface{}{
			"account_id": res.AccountID,
			"status":     res.Status,
			"executed":   len(res.Trades),
			"skipped":    len(res.Skipped),
			"failed":     len(res.Failed),
		},
	}
}

// MultiNotifier sends notifications to multiple channels.
type MultiNotifier struct {
	channels []NotificationChannel
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier with the channels enabled in cfg.
func NewMultiNotifier(cfg config.NotificationConfig, logger zerolog.Logger) *MultiNotifier {
	mn := &MultiNotifier{channels: make([]NotificationChannel, 0)}
	if !cfg.Enabled {
		return mn
	}
	if cfg.Log {
		mn.channels = append(mn.channels, NewLogNotifier(logger))
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}
	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch NotificationChannel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Channels returns the names of the configured channels.
func (mn *MultiNotifier) Channels() []string {
	mn.mu.RLock()
	defer mn.mu.RUnlock()
	names := make([]string, 0, len(mn.channels))
	for _, ch := range mn.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Send sends a notification to all enabled channels. Every channel is tried;
// failures are reported together.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// Name returns the name of the notifier.
func (l *LogNotifier) Name() string { return "log" }

// IsEnabled returns whether the notifier is enabled.
func (l *LogNotifier) IsEnabled() bool { return true }

// Send logs the notification.
func (l *LogNotifier) Send(_ context.Context, n Notification) error {
	event := l.logger.Info().
		Str("event", "notification").
		Str("type", string(n.Type)).
		Str("title", n.Title)
	if len(n.Data) > 0 {
		event = event.Fields(n.Data)
	}
	event.Msg(n.Message)
	return nil
}

// WebhookNotifier sends notifications via HTTP webhook.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

// Send posts the notification as JSON.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CapitalTrader/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NoOpNotifier is a notifier that does nothing.
type NoOpNotifier struct{}

// Send does nothing.
func (NoOpNotifier) Send(context.Context, Notification) error { return nil }
