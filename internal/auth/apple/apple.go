// Package apple verifies Sign in with Apple identity tokens produced by the
// native credential prompt on the device.
package apple

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/session"
)

const (
	ProviderName = "apple"
	Issuer       = "https://appleid.apple.com"
	JWKSURL      = "https://appleid.apple.com/auth/keys"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks identity tokens against Apple's signing keys.
type Verifier struct {
	ClientID string
	Keyfunc  jwt.Keyfunc
	// Methods lists accepted signing algorithms; RS256 when empty.
	Methods []string

	jwks *keyfunc.JWKS
}

// NewJWKSVerifier fetches Apple's key set and refreshes it in the background
// until Close is called.
func NewJWKSVerifier(ctx context.Context, clientID, jwksURL string, logger *log.Logger) (*Verifier, error) {
	if jwksURL == "" {
		jwksURL = JWKSURL
	}
	if logger == nil {
		logger = log.Discard()
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("Failed to refresh Apple signing keys", log.FieldError, err.Error())
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch apple jwks: %w", err)
	}
	return &Verifier{ClientID: clientID, Keyfunc: jwks.Keyfunc, jwks: jwks}, nil
}

func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify checks signature, issuer, audience and expiry of identityToken.
// givenName is passed through: Apple only reveals it on the device.
func (v *Verifier) Verify(identityToken, givenName string) (session.AppleCredential, error) {
	methods := v.Methods
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodRS256.Alg()}
	}

	var c claims
	_, err := jwt.ParseWithClaims(identityToken, &c, v.Keyfunc, jwt.WithValidMethods(methods))
	if err != nil {
		return session.AppleCredential{}, fmt.Errorf("%w: identity token: %w", core.ErrAuthExchangeFailed, err)
	}

	switch {
	case !c.VerifyIssuer(Issuer, true):
		return session.AppleCredential{}, fmt.Errorf("%w: unexpected issuer %q", core.ErrAuthExchangeFailed, c.Issuer)
	case !c.VerifyAudience(v.ClientID, true):
		return session.AppleCredential{}, fmt.Errorf("%w: token not issued for %q", core.ErrAuthExchangeFailed, v.ClientID)
	case c.ExpiresAt == nil:
		return session.AppleCredential{}, fmt.Errorf("%w: token without expiry", core.ErrAuthExchangeFailed)
	case c.Subject == "":
		return session.AppleCredential{}, fmt.Errorf("%w: token without subject", core.ErrAuthExchangeFailed)
	}

	return session.AppleCredential{
		User:      c.Subject,
		Email:     c.Email,
		GivenName: strings.TrimSpace(givenName),
	}, nil
}

// Credential is what the native prompt hands back. An empty IdentityToken
// means the user dismissed the prompt.
type Credential struct {
	IdentityToken string
	GivenName     string
}

type Provider struct {
	Verifier   *Verifier
	Credential Credential
}

func (Provider) Name() string { return ProviderName }

func (p Provider) Authorize(ctx context.Context) (session.Outcome, error) {
	if strings.TrimSpace(p.Credential.IdentityToken) == "" {
		return session.Failure{Reason: "credential prompt dismissed", Cancelled: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cred, err := p.Verifier.Verify(p.Credential.IdentityToken, p.Credential.GivenName)
	if err != nil {
		return nil, err
	}
	return cred, nil
}
