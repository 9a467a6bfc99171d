// Package notify delivers password reset codes by SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/metrics"
)

var (
	ErrNotConfigured = errors.New("sms delivery not configured")
	ErrInvalidPhone  = errors.New("phone number must be in E.164 format")
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// NormalizePhone strips spaces, dashes and parentheses and checks the
// result is an E.164 number.
func NormalizePhone(s string) (string, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
	if !e164.MatchString(s) {
		return "", ErrInvalidPhone
	}
	return s, nil
}

func ResetCodeMessage(code string) string {
	return fmt.Sprintf("Your Cheffry password reset code is %s. It expires in 15 minutes.", code)
}

// TwilioSender sends messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{client: client, from: cfg.FromNumber}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := NormalizePhone(to)
	if err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	_, err = s.client.Api.CreateMessage(params)
	metrics.RecordSMS(err)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}

// Disabled is used when Twilio credentials are absent.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) error { return ErrNotConfigured }

// New returns a Twilio sender when configured, otherwise Disabled.
func New(cfg config.TwilioConfig) Sender {
	if !cfg.Enabled() {
		return Disabled{}
	}
	return NewTwilioSender(cfg)
}
