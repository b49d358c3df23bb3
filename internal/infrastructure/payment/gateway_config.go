package payment

import (
	"errors"
	"time"
)

// Config contains configuration for the hosted payment gateway API
type Config struct {
	// BaseURL is the gateway API endpoint, e.g. https://api.gateway.example
	BaseURL string
	// MerchantID identifies this merchant account with the gateway
	MerchantID string
	// APIKey authenticates outbound API calls
	APIKey string
	// WebhookSecret is the shared secret for verifying inbound callbacks
	WebhookSecret string
	// Timeout bounds each gateway HTTP call
	Timeout time.Duration
	// ReturnURL is where the gateway redirects the customer after payment
	ReturnURL string
	// NotifyURL is the default callback URL for payment notifications
	NotifyURL string
}

// Errors for configuration validation
var (
	ErrGatewayMissingBaseURL       = errors.New("gateway: missing base URL")
	ErrGatewayMissingMerchantID    = errors.New("gateway: missing merchant ID")
	ErrGatewayMissingAPIKey        = errors.New("gateway: missing API key")
	ErrGatewayMissingWebhookSecret = errors.New("gateway: missing webhook secret")
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrGatewayMissingBaseURL
	}
	if c.MerchantID == "" {
		return ErrGatewayMissingMerchantID
	}
	if c.APIKey == "" {
		return ErrGatewayMissingAPIKey
	}
	if c.WebhookSecret == "" {
		return ErrGatewayMissingWebhookSecret
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}
