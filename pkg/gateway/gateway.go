package gateway

import (
	"context"
	"time"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type CallRequest struct {
	To             string
	TwiML          string
	Timeout        time.Duration
	Record         bool
	StatusCallback string
}

type VoiceGateway interface {
	Configured() bool
	PlaceCall(ctx context.Context, req CallRequest) (string, error)
	HangUp(ctx context.Context, sid string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) (string, error)
}

type PushResult struct {
	SuccessCount int
	FailureCount int
}

type PushSender interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error)
}
