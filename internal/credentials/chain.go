package credentials

import (
	"strings"

	"github.com/cloudcost-guard/internal/domain"
)

// Source yields a credential of a given kind, or false when it has none
type Source interface {
	Kind() domain.CredentialKind
	Lookup() (string, bool)
}

// Credential is a resolved API key and where it came from
type Credential struct {
	Value string
	Kind  domain.CredentialKind
}

// Present reports whether a key was found
func (c Credential) Present() bool {
	return c.Value != ""
}

// Chain evaluates sources in order; the first non-blank value wins
type Chain []Source

// Resolve returns the first credential found, or an empty credential of
// kind none.
func (c Chain) Resolve() Credential {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(); ok {
			if v = strings.TrimSpace(v); v != "" {
				return Credential{Value: v, Kind: src.Kind()}
			}
		}
	}
	return Credential{Kind: domain.CredentialNone}
}

// Static is a fixed credential, used for ambient configuration
type Static struct {
	Value      string
	SourceKind domain.CredentialKind
}

// Ambient wraps the process-level API key (config file, env, Secrets Manager)
func Ambient(value string) Static {
	return Static{Value: value, SourceKind: domain.CredentialEnv}
}

// Manual wraps a key supplied directly by the user, e.g. a CLI flag
func Manual(value string) Static {
	return Static{Value: value, SourceKind: domain.CredentialManual}
}

func (s Static) Kind() domain.CredentialKind { return s.SourceKind }

func (s Static) Lookup() (string, bool) {
	return s.Value, s.Value != ""
}

// Session looks up the manual key stored for one browser session
type Session struct {
	Store *SessionStore
	ID    string
}

func (s Session) Kind() domain.CredentialKind { return domain.CredentialManual }

func (s Session) Lookup() (string, bool) {
	if s.Store == nil || s.ID == "" {
		return "", false
	}
	return s.Store.Get(s.ID)
}
