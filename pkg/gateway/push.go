package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
)

type pushRequest struct {
	Tokens   []string          `json:"tokens"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Priority string            `json:"priority"`
}

type pushResponse struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

type pushError struct {
	Error string `json:"error"`
}

// HTTPPush posts multicast notifications to a push relay speaking a small JSON protocol.
type HTTPPush struct {
	client *resty.Client
	logger *zap.Logger
}

func NewHTTPPush(cfg common.PushConfig) *HTTPPush {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Key != "" {
		client.SetAuthToken(cfg.Key)
	}
	return &HTTPPush{
		client: client,
		logger: common.GetLoggerWith(common.LoggerNameGateway, zap.String("provider", "push")),
	}
}

func (p *HTTPPush) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error) {
	var result pushResponse
	var apiErr pushError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pushRequest{Tokens: tokens, Title: title, Body: body, Data: data, Priority: "high"}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/send")
	if err != nil {
		return PushResult{}, fmt.Errorf("push request failed: %w", err)
	}
	if resp.IsError() {
		p.logger.Warn("Push relay returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", apiErr.Error),
		)
		return PushResult{}, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}

	p.logger.Info("Push sent",
		zap.Int("tokens", len(tokens)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount),
	)
	return PushResult{SuccessCount: result.SuccessCount, FailureCount: result.FailureCount}, nil
}
