package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"

	"github.com/quorumhq/notify/pkg/logger"
)

// EmailConfig holds the Postmark configuration for the optional email copy
// channel. Tokens are optional so local environments can leave the channel
// disabled.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
}

// Enabled reports whether the configuration is complete enough to send mail.
func (c EmailConfig) Enabled() bool {
	return c.PostmarkServerToken != "" && c.SenderEmail != ""
}

// EmailDeliverer sends recipients an email copy of each notification through
// Postmark. It follows the same best-effort contract as live push: failures
// are logged and reported as a missed delivery, never escalated.
type EmailDeliverer struct {
	client *postmark.Client
	sender string
	log    *slog.Logger
}

// NewEmailDeliverer creates a Postmark-backed deliverer.
// Returns an error when the configuration is incomplete; call
// EmailConfig.Enabled first to keep the channel optional.
func NewEmailDeliverer(cfg EmailConfig, log *slog.Logger) (*EmailDeliverer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("email deliverer: incomplete configuration")
	}
	if log == nil {
		log = slog.Default()
	}
	return &EmailDeliverer{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.SenderEmail,
		log:    log,
	}, nil
}

func (d *EmailDeliverer) Deliver(ctx context.Context, n Notification) bool {
	resp, err := d.client.SendEmail(ctx, postmark.Email{
		From:     d.sender,
		To:       n.Recipient,
		Subject:  n.Subject,
		TextBody: n.Body,
		Tag:      string(n.Kind),
	})
	if err != nil || resp.ErrorCode > 0 {
		if err == nil {
			err = fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
		}
		d.log.LogAttrs(ctx, slog.LevelWarn, "email copy not delivered",
			logger.NotificationID(n.ID),
			logger.Recipient(n.Recipient),
			logger.Error(err),
		)
		return false
	}
	return true
}
