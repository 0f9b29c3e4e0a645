package sos

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	callbackAudience = "voice-callback"
	callbackTokenTTL = 24 * time.Hour
)

// CallbackToken signs callID for the voice gateway callback URLs. It is empty when no signing
// key is configured.
func (s *SOS) CallbackToken(callID string) string {
	key := s.Config.Twilio.CallbackSigningKey()
	if key == "" {
		return ""
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   callID,
		Audience:  jwt.ClaimStrings{callbackAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(callbackTokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return ""
	}
	return signed
}

// VerifyCallbackToken reports whether token was issued by CallbackToken for callID.
func (s *SOS) VerifyCallbackToken(callID, token string) bool {
	key := s.Config.Twilio.CallbackSigningKey()
	if key == "" || callID == "" || token == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(callbackAudience),
		jwt.WithTimeFunc(s.now),
	)
	return err == nil && claims.Subject == callID
}
