package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/sos-response-service/pkg/common"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) *Twilio {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwilio(common.TwilioConfig{
		BaseURL:    srv.URL,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550000000",
	})
}

func TestTwilio_SendSMS(t *testing.T) {
	common.SetTestLoggerNop()

	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551112222", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
		assert.Equal(t, "help", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	})

	sid, err := tw.SendSMS(context.Background(), "+15551112222", "help")
	require.NoError(t, err)
	assert.Equal(t, "SM1", sid)
}

func TestTwilio_PlaceCallAndHangUp(t *testing.T) {
	common.SetTestLoggerNop()

	var paths []string
	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/Calls.json") {
			assert.Equal(t, "<Response/>", r.PostForm.Get("Twiml"))
			assert.Equal(t, "30", r.PostForm.Get("Timeout"))
			assert.Equal(t, "true", r.PostForm.Get("Record"))
			assert.Equal(t, "https://cb/voice/status?callId=c1", r.PostForm.Get("StatusCallback"))
			assert.Len(t, r.PostForm["StatusCallbackEvent"], 4)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sid":"CA1","status":"queued"}`))
			return
		}
		assert.Equal(t, "completed", r.PostForm.Get("Status"))
		_, _ = w.Write([]byte(`{"sid":"CA1","status":"completed"}`))
	})

	assert.True(t, tw.Configured())
	sid, err := tw.PlaceCall(context.Background(), CallRequest{
		To:             "+15551112222",
		TwiML:          "<Response/>",
		Timeout:        30 * time.Second,
		Record:         true,
		StatusCallback: "https://cb/voice/status?callId=c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "CA1", sid)

	require.NoError(t, tw.HangUp(context.Background(), sid))
	assert.Equal(t, []string{
		"/2010-04-01/Accounts/AC123/Calls.json",
		"/2010-04-01/Accounts/AC123/Calls/CA1.json",
	}, paths)
}

func TestTwilio_Errors(t *testing.T) {
	common.SetTestLoggerNop()

	tw := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	})

	_, err := tw.SendSMS(context.Background(), "nope", "help")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 21211, apiErr.Code)

	unconfigured := NewTwilio(common.TwilioConfig{})
	assert.False(t, unconfigured.Configured())
	_, err = unconfigured.SendSMS(context.Background(), "+1", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPPush(t *testing.T) {
	common.SetTestLoggerNop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "Bearer push-key", r.Header.Get("Authorization"))
		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b", "c"}, req.Tokens)
		assert.Equal(t, "inc-1", req.Data["incidentId"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"successCount":2,"failureCount":1}`))
	}))
	defer srv.Close()

	p := NewHTTPPush(common.PushConfig{URL: srv.URL, Key: "push-key"})
	res, err := p.SendPush(context.Background(), []string{"a", "b", "c"}, "SOS", "help", map[string]string{"incidentId": "inc-1"})
	require.NoError(t, err)
	assert.Equal(t, PushResult{SuccessCount: 2, FailureCount: 1}, res)
}

func TestSMTPMailer(t *testing.T) {
	common.SetTestLoggerNop()

	m := NewSMTPMailer(common.SMTPConfig{Host: "mail.example.com", Port: 2525, Username: "u", Password: "p", From: "sos@example.com"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.NotNil(t, a)
		assert.Equal(t, "sos@example.com", from)
		return nil
	}

	id, err := m.SendEmail(context.Background(), "kin@example.com", "Emergency alert", "<p>hi</p>")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "mail.example.com:2525", gotAddr)
	assert.Equal(t, []string{"kin@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.Contains(t, gotMsg, "Message-ID: <"+id+"@mail.example.com>")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>hi</p>"))

	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("450 mailbox busy") }
	_, err = m.SendEmail(context.Background(), "kin@example.com", "x", "y")
	assert.ErrorContains(t, err, "mailbox busy")

	_, err = NewSMTPMailer(common.SMTPConfig{}).SendEmail(context.Background(), "a@b", "x", "y")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
