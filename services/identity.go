package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/Timothylock/go-signin-with-apple/apple"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/idtoken"
)

var ErrIdentityRejected = errors.New("identity could not be verified")

// Identity is the verified subject of a third party sign in.
// EmailVerified gates linking to an existing account by email.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type IdentityProvider interface {
	VerifyGoogle(ctx context.Context, idToken string) (*Identity, error)
	VerifyFirebase(ctx context.Context, idToken string) (*Identity, error)
	VerifyApple(ctx context.Context, authorizationCode string) (*Identity, error)
}

type AppleSignInConfig struct {
	TeamID   string
	KeyID    string
	ClientID string
	// base64 encoded contents of the .p8 key
	PrivateKeyBase64 string
}

type IdentityService struct {
	GoogleClientID string
	Firebase       *auth.Client
	Apple          AppleSignInConfig
}

func claimString(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return value
}

// claimBool accepts both JSON booleans and the "true" strings some
// providers send.
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (s *IdentityService) VerifyGoogle(ctx context.Context, idToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, idToken, s.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
	}
	identity := &Identity{
		Provider:      "google",
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
	}
	if identity.Subject == "" {
		identity.Subject = claimString(payload.Claims, "sub")
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: google token without subject or email", ErrIdentityRejected)
	}
	return identity, nil
}

func (s *IdentityService) VerifyFirebase(ctx context.Context, idToken string) (*Identity, error) {
	if s.Firebase == nil {
		return nil, fmt.Errorf("%w: firebase auth is not configured", ErrIdentityRejected)
	}
	token, err := s.Firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
	}
	return &Identity{
		Provider:      "firebase",
		Subject:       token.UID,
		Email:         claimString(token.Claims, "email"),
		EmailVerified: claimBool(token.Claims, "email_verified"),
		Name:          claimString(token.Claims, "name"),
		Picture:       claimString(token.Claims, "picture"),
	}, nil
}

func (s *IdentityService) VerifyApple(ctx context.Context, authorizationCode string) (*Identity, error) {
	decoded, err := base64.StdEncoding.DecodeString(s.Apple.PrivateKeyBase64)
	if err != nil || len(decoded) == 0 {
		return nil, fmt.Errorf("apple private key is not configured: %v", err)
	}
	secret, err := apple.GenerateClientSecret(string(decoded), s.Apple.TeamID, s.Apple.ClientID, s.Apple.KeyID)
	if err != nil {
		return nil, fmt.Errorf("apple client secret: %w", err)
	}

	client := apple.New()
	vReq := apple.AppValidationTokenRequest{
		ClientID:     s.Apple.ClientID,
		ClientSecret: secret,
		Code:         authorizationCode,
	}
	var resp apple.ValidationResponse
	if err := client.VerifyAppToken(ctx, vReq, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: apple returned %s - %s", ErrIdentityRejected, resp.Error, resp.ErrorDescription)
	}

	unique, err := apple.GetUniqueID(resp.IDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
	}
	claim, err := apple.GetClaims(resp.IDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityRejected, err)
	}
	email, _ := (*claim)["email"].(string)
	if email == "" {
		log.Warn().Str("subject", unique).Msg("apple sign in without email claim")
	}
	// apple only hands out addresses it has verified
	return &Identity{
		Provider:      "apple",
		Subject:       unique,
		Email:         email,
		EmailVerified: email != "",
	}, nil
}
