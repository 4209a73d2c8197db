package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MSG91Provider delivers through the MSG91 flow API.
type MSG91Provider struct {
	APIKey   string
	SenderID string
	client   *http.Client
}

// Name identifies the provider.
func (p *MSG91Provider) Name() string { return ProviderMSG91 }

// Send posts the message to MSG91.
func (p *MSG91Provider) Send(ctx context.Context, msg Message) error {
	payload := map[string]interface{}{
		"sender":  p.SenderID,
		"route":   "4",
		"country": "91",
		"sms": []map[string]interface{}{
			{"message": msg.Body, "to": []string{msg.To}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal msg91 payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.msg91.com/api/v2/sendsms", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build msg91 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", p.APIKey)

	return doProviderRequest(p.client, req, ProviderMSG91)
}

// Fast2SMSProvider delivers through the Fast2SMS bulk API.
type Fast2SMSProvider struct {
	APIKey string
	client *http.Client
}

// Name identifies the provider.
func (p *Fast2SMSProvider) Name() string { return ProviderFast2SMS }

// Send posts the message to Fast2SMS.
func (p *Fast2SMSProvider) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("route", "q")
	form.Set("message", msg.Body)
	form.Set("numbers", msg.To)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://www.fast2sms.com/dev/bulkV2", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build fast2sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("authorization", p.APIKey)

	return doProviderRequest(p.client, req, ProviderFast2SMS)
}

// TextLocalProvider delivers through the TextLocal API.
type TextLocalProvider struct {
	APIKey   string
	SenderID string
	client   *http.Client
}

// Name identifies the provider.
func (p *TextLocalProvider) Name() string { return ProviderTextLocal }

// Send posts the message to TextLocal.
func (p *TextLocalProvider) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("apikey", p.APIKey)
	form.Set("sender", p.SenderID)
	form.Set("numbers", msg.To)
	form.Set("message", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.textlocal.in/send/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build textlocal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doProviderRequest(p.client, req, ProviderTextLocal)
}

// TwilioProvider delivers through the Twilio messages API.
type TwilioProvider struct {
	AccountSID string
	AuthToken  string
	From       string
	client     *http.Client
}

// Name identifies the provider.
func (p *TwilioProvider) Name() string { return ProviderTwilio }

// Send posts the message to Twilio.
func (p *TwilioProvider) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", p.From)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", p.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.AccountSID, p.AuthToken)

	return doProviderRequest(p.client, req, ProviderTwilio)
}

func doProviderRequest(client *http.Client, req *http.Request, provider string) error {
	if client == nil {
		client = newHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s rejected message: status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
