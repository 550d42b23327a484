// Package channel implements the notification delivery channels over the
// external provider HTTP APIs.
package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/climate-alert-service/internal/alert"
	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	return c
}

func providerError(name domain.ChannelName, resp *resty.Response) error {
	return fmt.Errorf("%s provider: status %d: %s", name, resp.StatusCode(), resp.String())
}

// Push delivers to device push tokens. It implements alert.Channel.
type Push struct {
	client *resty.Client
}

func NewPush(baseURL string, timeout time.Duration) *Push {
	return &Push{client: newRestyClient(baseURL, timeout)}
}

func (p *Push) Name() domain.ChannelName { return domain.ChannelPush }

func (p *Push) Send(ctx context.Context, address string, msg alert.Message) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pushPayload{Token: address, Title: msg.Title, Body: msg.Body}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("push send: %w", err)
	}
	if resp.IsError() {
		return providerError(domain.ChannelPush, resp)
	}
	return nil
}

// Email delivers to email addresses. It implements alert.Channel.
type Email struct {
	client *resty.Client
}

func NewEmail(baseURL string, timeout time.Duration) *Email {
	return &Email{client: newRestyClient(baseURL, timeout)}
}

func (e *Email) Name() domain.ChannelName { return domain.ChannelEmail }

func (e *Email) Send(ctx context.Context, address string, msg alert.Message) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(emailPayload{To: address, Subject: msg.Title, Body: msg.Body}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	if resp.IsError() {
		return providerError(domain.ChannelEmail, resp)
	}
	return nil
}

// SMS delivers to phone numbers. The dispatcher only routes critical alerts
// here; the channel itself sends whatever it is given.
type SMS struct {
	client *resty.Client
}

func NewSMS(baseURL string, timeout time.Duration) *SMS {
	return &SMS{client: newRestyClient(baseURL, timeout)}
}

func (s *SMS) Name() domain.ChannelName { return domain.ChannelSMS }

func (s *SMS) Send(ctx context.Context, address string, msg alert.Message) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(smsPayload{To: address, Message: fmt.Sprintf("%s\n%s", msg.Title, msg.Body)}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	if resp.IsError() {
		return providerError(domain.ChannelSMS, resp)
	}
	return nil
}

// Webhook posts the serialized alert to an arbitrary endpoint URL. Unlike
// the other channels the address is the full target URL, not a recipient
// identifier.
type Webhook struct {
	client *resty.Client
}

func NewWebhook(timeout time.Duration) *Webhook {
	c := resty.New()
	c.SetTimeout(timeout)
	return &Webhook{client: c}
}

func (w *Webhook) Name() domain.ChannelName { return domain.ChannelWebhook }

func (w *Webhook) Send(ctx context.Context, address string, msg alert.Message) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg.Body).
		Post(address)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	if resp.IsError() {
		return providerError(domain.ChannelWebhook, resp)
	}
	return nil
}

// Provider API payloads.

type pushPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type smsPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}
