package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capital-trader/internal/config"
	"capital-trader/internal/models"
)

type recordingChannel struct {
	name    string
	err     error
	enabled bool
	got     []Notification
}

func (r *recordingChannel) Name() string    { return r.name }
func (r *recordingChannel) IsEnabled() bool { return r.enabled }
func (r *recordingChannel) Send(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func testAlert() models.Alert {
	return models.Alert{
		ID:        "a-1",
		AccountID: "ACC-1",
		Asset:     "BTC",
		Price:     decimal.NewFromInt(50000),
		Condition: models.AlertConditionAbove,
	}
}

func TestMultiNotifierSendsToEnabledChannels(t *testing.T) {
	mn := NewMultiNotifier(config.NotificationConfig{Enabled: true}, zerolog.Nop())
	on := &recordingChannel{name: "on", enabled: true}
	off := &recordingChannel{name: "off"}
	mn.AddChannel(on)
	mn.AddChannel(off)

	err := mn.Send(context.Background(), AlertTriggered(testAlert(), decimal.NewFromInt(51000)))
	require.NoError(t, err)
	require.Len(t, on.got, 1)
	assert.Empty(t, off.got)
	assert.False(t, on.got[0].Timestamp.IsZero())
	assert.Equal(t, NotificationAlert, on.got[0].Type)
}

func TestMultiNotifierCollectsErrors(t *testing.T) {
	mn := &MultiNotifier{}
	bad := &recordingChannel{name: "bad", enabled: true, err: errors.New("down")}
	good := &recordingChannel{name: "good", enabled: true}
	mn.AddChannel(bad)
	mn.AddChannel(good)

	err := mn.Send(context.Background(), Notification{Type: NotificationError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Len(t, good.got, 1)
}

func TestNewMultiNotifierChannels(t *testing.T) {
	disabled := NewMultiNotifier(config.NotificationConfig{Enabled: false, Log: true}, zerolog.Nop())
	assert.Empty(t, disabled.Channels())

	cfg := config.NotificationConfig{
		Enabled: true,
		Log:     true,
		Webhook: config.WebhookConfig{Enabled: true, URL: "http://localhost"},
	}
	assert.Equal(t, []string{"log", "webhook"}, NewMultiNotifier(cfg, zerolog.Nop()).Channels())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	conf := models.Confirmation{
		ID:        "c-1",
		AccountID: "ACC-1",
		Asset:     "AAPL",
		Side:      models.SideBuy,
		Quantity:  decimal.NewFromInt(5),
		Price:     decimal.NewFromInt(100),
		Balance:   decimal.NewFromInt(500),
	}
	require.NoError(t, n.Send(context.Background(), TradeExecuted(conf)))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "notification", entry["event"])
	assert.Equal(t, "trade", entry["type"])
	assert.Equal(t, "AAPL", entry["asset"])
	assert.Equal(t, "c-1", entry["confirmation_id"])
}

func TestWebhookNotifier(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL, Timeout: time.Second})
	require.True(t, w.IsEnabled())

	res := models.StrategyResult{AccountID: "ACC-1", Status: models.StrategyExecuted}
	n := StrategyCompleted(res)
	n.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.Send(context.Background(), n))

	assert.Equal(t, "strategy", received["type"])
	assert.Equal(t, "2024-01-01T00:00:00Z", received["timestamp"])
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL})
	err := w.Send(context.Background(), Notification{Type: NotificationError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWebhookNotifierDisabledWithoutURL(t *testing.T) {
	w := NewWebhookNotifier(config.WebhookConfig{Enabled: true})
	assert.False(t, w.IsEnabled())
	assert.NoError(t, w.Send(context.Background(), Notification{}))
}
