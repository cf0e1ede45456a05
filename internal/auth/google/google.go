// Package google signs users in with a Google account: a browser redirect
// yields an access token, which is redeemed for the user's profile.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/session"
)

const ProviderName = "google"

var Scopes = []string{"openid", "profile", "email"}

// Flow runs the authorization-code redirect against a local callback server.
type Flow struct {
	Config *oauth2.Config
	// Port of the local callback server; "0" picks a free port.
	Port string
	// Open shows the consent URL to the user.
	Open   func(authURL string)
	Logger *log.Logger
}

func NewFlow(clientID, clientSecret, port string) *Flow {
	return &Flow{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       Scopes,
		},
		Port: port,
		Open: func(authURL string) {
			fmt.Printf("Open this URL to sign in:\n%s\n", authURL)
		},
	}
}

type callbackResult struct {
	code string
	err  error
}

// Token blocks until the user finishes (or abandons) the consent screen.
// A denied consent or ctx ending first is reported as ErrAuthCancelled.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = log.Discard()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:"+f.Port)
	if err != nil {
		return nil, fmt.Errorf("%w: listen for callback: %w", core.ErrAuthExchangeFailed, err)
	}

	cfg := *f.Config
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/callback"
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "unknown sign-in attempt", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch errStr := q.Get("error"); {
		case errStr == "access_denied":
			res.err = core.ErrAuthCancelled
		case errStr != "":
			res.err = fmt.Errorf("%w: %s", core.ErrAuthExchangeFailed, errStr)
		case q.Get("code") == "":
			res.err = fmt.Errorf("%w: callback without code", core.ErrAuthExchangeFailed)
		default:
			res.code = q.Get("code")
		}

		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.InfoContext(ctx, "Waiting for OAuth callback", "redirect_url", cfg.RedirectURL)
	f.Open(cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)))

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", core.ErrAuthCancelled, ctx.Err())
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("%w: token exchange: %w", core.ErrAuthExchangeFailed, err)
		}
		return tok, nil
	}
}

// Redeemer looks up the profile behind an access token.
type Redeemer struct {
	// Endpoint overrides the Google API base URL.
	Endpoint string
}

func (r Redeemer) Redeem(ctx context.Context, accessToken string) (session.GoogleProfile, error) {
	if strings.TrimSpace(accessToken) == "" {
		return session.GoogleProfile{}, fmt.Errorf("%w: empty access token", core.ErrAuthExchangeFailed)
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if r.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(r.Endpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return session.GoogleProfile{}, fmt.Errorf("%w: create userinfo client: %w", core.ErrAuthExchangeFailed, err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return session.GoogleProfile{}, fmt.Errorf("%w: %w", core.ErrAuthCancelled, err)
		}
		return session.GoogleProfile{}, fmt.Errorf("%w: userinfo: %w", core.ErrAuthExchangeFailed, err)
	}

	return session.GoogleProfile{
		ID:        info.Id,
		Email:     info.Email,
		GivenName: info.GivenName,
		Picture:   info.Picture,
	}, nil
}

// Provider signs in through the browser redirect.
type Provider struct {
	Flow     *Flow
	Redeemer Redeemer
}

func (Provider) Name() string { return ProviderName }

func (p Provider) Authorize(ctx context.Context) (session.Outcome, error) {
	tok, err := p.Flow.Token(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := p.Redeemer.Redeem(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// TokenProvider signs in with an access token a client already obtained.
type TokenProvider struct {
	AccessToken string
	Redeemer    Redeemer
}

func (TokenProvider) Name() string { return ProviderName }

func (p TokenProvider) Authorize(ctx context.Context) (session.Outcome, error) {
	if strings.TrimSpace(p.AccessToken) == "" {
		return session.Failure{Reason: "no access token", Cancelled: true}, nil
	}
	profile, err := p.Redeemer.Redeem(ctx, p.AccessToken)
	if err != nil {
		return nil, err
	}
	return profile, nil
}
