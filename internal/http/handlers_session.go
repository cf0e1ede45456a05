package http

import (
	"net/http"

	"myfinances/internal/auth/apple"
	"myfinances/internal/auth/google"
	"myfinances/internal/core"
)

type sessionResponse struct {
	SignedIn bool           `json:"signedIn"`
	Identity *core.Identity `json:"identity,omitempty"`
}

func signedIn(id core.Identity) sessionResponse {
	return sessionResponse{SignedIn: true, Identity: &id}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessions.Current()
	if !ok {
		NewResponse().JSON(sessionResponse{}).Write(w)
		return
	}
	NewResponse().JSON(signedIn(id)).Write(w)
}

// handleGoogleSignIn redeems an access token obtained by the client's own
// OAuth flow for the user's profile.
func (s *Server) handleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req googleSignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}

	id, err := s.sessions.SignIn(r.Context(), google.TokenProvider{
		AccessToken: req.AccessToken,
		Redeemer:    s.google,
	})
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewResponse().JSON(signedIn(id)).Write(w)
}

func (s *Server) handleAppleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.apple == nil {
		ErrorResponse(http.StatusNotImplemented, kindNotConfigured, "Apple sign-in is not configured").Write(w)
		return
	}

	var req appleSignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		FromError(r, err).Write(w)
		return
	}

	id, err := s.sessions.SignIn(r.Context(), apple.Provider{
		Verifier: s.apple,
		Credential: apple.Credential{
			IdentityToken: req.IdentityToken,
			GivenName:     sanitizeInput(req.GivenName),
		},
	})
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewResponse().JSON(signedIn(id)).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context()); err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
