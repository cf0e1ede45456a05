package session

import (
	"fmt"
	"strings"

	"myfinances/internal/core"
)

// Outcome is what an identity provider hands back after its exchange. It is
// a closed union: GoogleProfile, AppleCredential or Failure.
type Outcome interface {
	outcome()
}

// GoogleProfile is the profile a Google access token redeems to.
type GoogleProfile struct {
	ID        string
	Email     string
	GivenName string
	Picture   string
}

// AppleCredential is the content of a verified Apple native credential.
// Apple only shares the name on the device, never in the signed token.
type AppleCredential struct {
	User      string
	Email     string
	GivenName string
}

// Failure is a provider-reported failure. Cancelled marks a user abort.
type Failure struct {
	Reason    string
	Cancelled bool
}

func (GoogleProfile) outcome()   {}
func (AppleCredential) outcome() {}
func (Failure) outcome()         {}

// Normalize turns any provider outcome into an Identity.
func Normalize(o Outcome) (core.Identity, error) {
	var (
		id  core.Identity
		err error
	)
	switch v := o.(type) {
	case GoogleProfile:
		id = normalizeGoogle(v)
	case AppleCredential:
		id = normalizeApple(v)
	case Failure:
		err = normalizeFailure(v)
	case nil:
		err = fmt.Errorf("%w: provider returned no outcome", core.ErrAuthExchangeFailed)
	default:
		err = fmt.Errorf("%w: unknown outcome %T", core.ErrAuthExchangeFailed, o)
	}
	if err != nil {
		return core.Identity{}, err
	}
	if id.IsZero() {
		return core.Identity{}, fmt.Errorf("%w: provider returned no user id", core.ErrAuthExchangeFailed)
	}
	return id, nil
}

func normalizeGoogle(p GoogleProfile) core.Identity {
	return core.Identity{
		ID:    strings.TrimSpace(p.ID),
		Name:  p.GivenName,
		Email: p.Email,
		Photo: p.Picture,
	}
}

func normalizeApple(c AppleCredential) core.Identity {
	return core.Identity{
		ID:    strings.TrimSpace(c.User),
		Name:  c.GivenName,
		Email: c.Email,
	}
}

func normalizeFailure(f Failure) error {
	if f.Cancelled {
		if f.Reason == "" {
			return core.ErrAuthCancelled
		}
		return fmt.Errorf("%w: %s", core.ErrAuthCancelled, f.Reason)
	}
	return fmt.Errorf("%w: %s", core.ErrAuthExchangeFailed, f.Reason)
}
