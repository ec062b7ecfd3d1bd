package setup

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/oshokin/next-alarm/internal/config"
)

// QRSize is the side of the generated PNG in pixels.
const QRSize = 256

// webhookPath is the URL path the phone posts to, followed by the id.
const webhookPath = "api/webhook"

var (
	// ErrWebhookExists is returned when an installation already has a webhook id.
	ErrWebhookExists = errors.New("webhook is already configured")
	// ErrNoBaseURL is returned when the selected URL type has no base URL.
	ErrNoBaseURL = errors.New("base url is not configured")
)

// AssignWebhookID stores a fresh random webhook id in cfg. An existing id is
// kept and ErrWebhookExists returned unless force is set.
func AssignWebhookID(cfg *config.Config, force bool) (string, error) {
	if cfg.WebhookID != "" && !force {
		return cfg.WebhookID, ErrWebhookExists
	}

	cfg.WebhookID = uuid.NewString()

	return cfg.WebhookID, nil
}

// WebhookURL joins the base URL and the webhook id.
func WebhookURL(base, id string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", ErrNoBaseURL
	}

	joined, err := url.JoinPath(base, webhookPath, id)
	if err != nil {
		return "", fmt.Errorf("build webhook url: %w", err)
	}

	return joined, nil
}

// QRDataURI encodes content as a PNG QR code wrapped in a data URI.
func QRDataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, QRSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// WriteQRFile writes content as a PNG QR code to path.
func WriteQRFile(path, content string) error {
	if err := qrcode.WriteFile(content, qrcode.Medium, QRSize, path); err != nil {
		return fmt.Errorf("write qr code: %w", err)
	}

	return nil
}

// QRTerminal renders content as a QR code made of half-block characters.
func QRTerminal(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return code.ToSmallString(false), nil
}
