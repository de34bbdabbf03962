// Package access decides whether a request may act on a resource. A
// resource guarded by zero credentials is public; otherwise any one matching
// credential grants access. The same guard serves the admin gate (a fixed
// pair from configuration) and the per-resource gate (the credentials table)
// through the Source interface.
package access

import (
	"context"
	"crypto/subtle"

	"soundreview/core/auth"
	"soundreview/model"
	"soundreview/repository"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Allow lets the request proceed.
	Allow Decision = iota
	// RequireAuth means the resource is gated and no credential was
	// supplied; the transport layer answers with a challenge.
	RequireAuth
	// Reject means a credential was supplied but matched nothing.
	Reject
)

// Entry is one acceptable credential. Hashed entries verify with bcrypt;
// plaintext entries (the admin pair from config) compare in constant time.
type Entry struct {
	Username string
	Secret   string
	Hashed   bool
}

func (e Entry) matches(c auth.BasicCredentials) bool {
	if e.Username != c.Username {
		return false
	}
	if e.Hashed {
		return auth.CheckPasswordHash(c.Password, e.Secret)
	}
	return subtle.ConstantTimeCompare([]byte(e.Secret), []byte(c.Password)) == 1
}

// Source yields the credential set guarding something. A Source error is a
// hard failure; it is never treated as "no credentials exist".
type Source interface {
	Credentials(ctx context.Context) ([]Entry, error)
}

// Fixed is a Source backed by a constant credential set.
type Fixed []Entry

// Credentials implements Source.
func (f Fixed) Credentials(ctx context.Context) ([]Entry, error) {
	return f, nil
}

// resourceSource loads hashed entries from the credentials table for one
// resource.
type resourceSource struct {
	repo         repository.CredentialRepository
	resourceType model.ResourceType
	resourceID   int64
}

// ForResource returns the Source guarding the given resource.
func ForResource(repo repository.CredentialRepository, resourceType model.ResourceType, resourceID int64) Source {
	return &resourceSource{repo: repo, resourceType: resourceType, resourceID: resourceID}
}

// Credentials implements Source.
func (s *resourceSource) Credentials(ctx context.Context) ([]Entry, error) {
	creds, err := s.repo.CredentialsForResource(ctx, s.resourceType, s.resourceID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(creds))
	for _, c := range creds {
		entries = append(entries, Entry{Username: c.Username, Secret: c.PasswordHash, Hashed: true})
	}
	return entries, nil
}

// Authorize runs the access check. On Allow via a matched credential the
// authenticated username is returned for binding into the request context;
// it is empty when the resource is public. Any Source error fails closed.
func Authorize(ctx context.Context, src Source, provided *auth.BasicCredentials) (Decision, string, error) {
	entries, err := src.Credentials(ctx)
	if err != nil {
		return Reject, "", err
	}

	if len(entries) == 0 {
		return Allow, "", nil
	}
	if provided == nil {
		return RequireAuth, "", nil
	}

	// First match wins; all matching entries grant identical access.
	for _, e := range entries {
		if e.matches(*provided) {
			return Allow, provided.Username, nil
		}
	}
	return Reject, "", nil
}
