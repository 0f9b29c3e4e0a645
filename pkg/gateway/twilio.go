package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
)

const twilioAPIVersion = "/2010-04-01"

type twilioResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	MoreInfo string `json:"more_info"`
}

// Twilio talks to a Twilio-compatible REST API for both SMS and voice.
type Twilio struct {
	client *resty.Client
	sid    string
	from   string
	ready  bool
	logger *zap.Logger
}

func NewTwilio(cfg common.TwilioConfig) *Twilio {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(15*time.Second).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")

	return &Twilio{
		client: client,
		sid:    cfg.AccountSID,
		from:   cfg.From,
		ready:  cfg.Configured(),
		logger: common.GetLoggerWith(common.LoggerNameGateway, zap.String("provider", "twilio")),
	}
}

func (t *Twilio) Configured() bool {
	return t.ready
}

func (t *Twilio) accountPath(resource string) string {
	return fmt.Sprintf("%s/Accounts/%s/%s", twilioAPIVersion, url.PathEscape(t.sid), resource)
}

func (t *Twilio) post(ctx context.Context, path string, form url.Values) (*twilioResource, error) {
	if !t.ready {
		return nil, ErrNotConfigured
	}

	var result twilioResource
	var apiErr twilioError
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("twilio request failed: %w", err)
	}
	if resp.IsError() {
		t.logger.Warn("Twilio API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		return nil, &APIError{StatusCode: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return &result, nil
}

func (t *Twilio) SendSMS(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	res, err := t.post(ctx, t.accountPath("Messages.json"), form)
	if err != nil {
		return "", err
	}
	t.logger.Info("SMS queued", zap.String("sid", res.SID), zap.String("to", to))
	return res.SID, nil
}

func (t *Twilio) PlaceCall(ctx context.Context, req CallRequest) (string, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", t.from)
	form.Set("Twiml", req.TwiML)
	if req.Timeout > 0 {
		form.Set("Timeout", strconv.Itoa(int(req.Timeout/time.Second)))
	}
	if req.Record {
		form.Set("Record", "true")
	}
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
		form.Set("StatusCallbackMethod", "POST")
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	res, err := t.post(ctx, t.accountPath("Calls.json"), form)
	if err != nil {
		return "", err
	}
	t.logger.Info("Call placed", zap.String("sid", res.SID), zap.String("to", req.To))
	return res.SID, nil
}

// HangUp ends an in-flight call by moving it to completed.
func (t *Twilio) HangUp(ctx context.Context, sid string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	_, err := t.post(ctx, t.accountPath("Calls/"+url.PathEscape(sid)+".json"), form)
	return err
}
