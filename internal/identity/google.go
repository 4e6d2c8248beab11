package identity

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrInvalidGoogleToken = errors.New("invalid google id token")

// GoogleAccount is the subset of a verified Google ID token the API relies on.
type GoogleAccount struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier validates Google sign-in ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleAccount, error)
}

type googleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier checks tokens against Google's published keys and the
// OAuth client ID of the web application.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleAccount, error) {
	if v.clientID == "" {
		return nil, errors.New("google sign-in is not configured")
	}
	if rawToken == "" {
		return nil, ErrInvalidGoogleToken
	}
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	return accountFromPayload(payload)
}

func accountFromPayload(p *idtoken.Payload) (*GoogleAccount, error) {
	if p == nil || p.Subject == "" {
		return nil, ErrInvalidGoogleToken
	}
	acct := &GoogleAccount{Subject: p.Subject}
	if email, ok := p.Claims["email"].(string); ok {
		acct.Email = email
	}
	if verified, ok := p.Claims["email_verified"].(bool); ok {
		acct.EmailVerified = verified
	}
	if name, ok := p.Claims["name"].(string); ok {
		acct.Name = name
	}
	if acct.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidGoogleToken)
	}
	return acct, nil
}
