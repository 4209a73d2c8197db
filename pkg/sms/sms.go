package sms

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/pkg/config"
)

// Message is a single outbound SMS.
type Message struct {
	To   string
	Body string
}

// Provider delivers SMS messages through a concrete gateway.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Provider identifiers accepted in SMS_PROVIDER.
const (
	ProviderConsole   = "console"
	ProviderMSG91     = "msg91"
	ProviderFast2SMS  = "fast2sms"
	ProviderTextLocal = "textlocal"
	ProviderTwilio    = "twilio"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// FromConfig selects a provider by name. Unknown or unconfigured providers
// fall back to the console simulator so reminder dispatch never hard-fails.
func FromConfig(cfg config.SMSConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderMSG91:
		if cfg.APIKey != "" {
			return &MSG91Provider{APIKey: cfg.APIKey, SenderID: cfg.SenderID, client: newHTTPClient()}
		}
	case ProviderFast2SMS:
		if cfg.APIKey != "" {
			return &Fast2SMSProvider{APIKey: cfg.APIKey, client: newHTTPClient()}
		}
	case ProviderTextLocal:
		if cfg.APIKey != "" {
			return &TextLocalProvider{APIKey: cfg.APIKey, SenderID: cfg.SenderID, client: newHTTPClient()}
		}
	case ProviderTwilio:
		if cfg.AccountSID != "" && cfg.APISecret != "" && cfg.FromNumber != "" {
			return &TwilioProvider{AccountSID: cfg.AccountSID, AuthToken: cfg.APISecret, From: cfg.FromNumber, client: newHTTPClient()}
		}
	case ProviderConsole, "":
		return NewConsoleProvider(logger)
	}

	logger.Warn("sms provider not configured, using console simulator", zap.String("provider", cfg.Provider))
	return NewConsoleProvider(logger)
}
