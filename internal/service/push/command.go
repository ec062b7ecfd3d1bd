package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/next-alarm/internal/api/webhook"
	"github.com/oshokin/next-alarm/internal/config"
	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
	"github.com/oshokin/next-alarm/internal/setup"
	"github.com/oshokin/next-alarm/internal/version"
)

// Options configures a single delivery.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// File is the YAML or JSON alarm list to deliver.
	File string
	// URL overrides the webhook URL built from the config.
	URL string
}

// defaultRetryCount is the number of retries after a failed delivery.
const defaultRetryCount = 2

var (
	// ErrNoWebhook is returned when no webhook URL can be determined.
	ErrNoWebhook = errors.New("webhook is not configured, pass --url or run next-alarm-setup")
	// ErrRejected is returned when the server answers with an error status.
	ErrRejected = errors.New("delivery rejected")
)

// Run delivers the alarm file to the webhook.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "next-alarm-push")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	url := opts.URL
	if url == "" {
		if cfg.WebhookID == "" {
			return ErrNoWebhook
		}

		if url, err = setup.WebhookURL(cfg.BaseURL(), cfg.WebhookID); err != nil {
			return errors.Join(ErrNoWebhook, err)
		}
	}

	payload, err := LoadAlarmFile(opts.File)
	if err != nil {
		return err
	}

	if payload.Skipped > 0 {
		logger.WarnKV(ctx, "Skipped malformed alarm entries", "skipped", payload.Skipped)
	}

	client := NewHTTPClient(cfg.Timeout)

	if source, err := DetectSource(); err == nil {
		client.SetHeader(webhook.SourceHeader, source)
	} else {
		logger.DebugKV(ctx, "Delivering without source", "error", err)
	}

	if err = Deliver(ctx, client, url, payload); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarms delivered", "alarms", len(payload.Alarms), "timezone", payload.Timezone)

	return nil
}

// LoadAlarmFile reads an alarm list in the webhook wire format. YAML is
// accepted as well as JSON.
func LoadAlarmFile(path string) (*domain.Payload, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read alarm file: %w", err)
	}

	var document any
	if err = yaml.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("unmarshal alarm file: %w", err)
	}

	body, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("convert alarm file: %w", err)
	}

	payload, err := domain.ParsePayload(body)
	if err != nil {
		return nil, fmt.Errorf("parse alarm file: %w", err)
	}

	return payload, nil
}

// NewHTTPClient returns a client that retries transport errors and 5xx answers.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(defaultRetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
}

// Deliver posts the payload to the webhook URL.
func Deliver(ctx context.Context, client *resty.Client, url string, payload *domain.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status(), strings.TrimSpace(resp.String()))
	}

	return nil
}
