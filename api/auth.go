package api

import (
	"context"

	"github.com/ieltsline/admincore"
	"github.com/ieltsline/admincore/gateway"
)

// Auth covers the phone verification login flow. It is the only service that
// talks to the API without caching: both calls are one-shot.
type Auth struct {
	gw *gateway.Client
}

// VerifyResult is the payload returned by a successful phone verification.
// Token is handed to the session manager's Login together with User.
type VerifyResult struct {
	User  admincore.User `json:"user"`
	Token string         `json:"accessToken"`
}

// SendVerificationCode asks the platform to text a login code to phone.
// The returned message is the server's human-readable confirmation.
func (s *Auth) SendVerificationCode(ctx context.Context, phone string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := s.gw.Post(ctx, "/auth/send-verification-code", map[string]string{"phone": phone}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyPhone exchanges phone and code for the authenticated user and an
// access token.
func (s *Auth) VerifyPhone(ctx context.Context, phone, code string) (VerifyResult, error) {
	var out dataEnvelope[VerifyResult]
	err := s.gw.Post(ctx, "/auth/verify-phone", map[string]string{
		"phone": phone,
		"code":  code,
	}, &out)
	if err != nil {
		return VerifyResult{}, err
	}
	return out.Data, nil
}
