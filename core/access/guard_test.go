package access

import (
	"context"
	"errors"
	"testing"

	"soundreview/core/auth"
)

type failingSource struct{ err error }

func (s failingSource) Credentials(ctx context.Context) ([]Entry, error) {
	return nil, s.err
}

func TestAuthorizePublicResource(t *testing.T) {
	// No credentials on the resource: everyone gets in, with or without
	// an Authorization header.
	decision, username, err := Authorize(context.Background(), Fixed{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != Allow {
		t.Errorf("got decision %v, want Allow", decision)
	}
	if username != "" {
		t.Errorf("public access bound username %q", username)
	}

	provided := &auth.BasicCredentials{Username: "anyone", Password: "anything"}
	decision, _, err = Authorize(context.Background(), Fixed{}, provided)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != Allow {
		t.Errorf("got decision %v with stray credentials, want Allow", decision)
	}
}

func TestAuthorizeGatedWithoutCredentials(t *testing.T) {
	source := Fixed{{Username: "alice", Secret: "pw"}}
	decision, _, err := Authorize(context.Background(), source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision != RequireAuth {
		t.Errorf("got decision %v, want RequireAuth", decision)
	}
}

func TestAuthorizeMatching(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	source := Fixed{
		{Username: "alice", Secret: "plain-pw"},
		{Username: "bob", Secret: hash, Hashed: true},
	}

	cases := []struct {
		name     string
		provided auth.BasicCredentials
		want     Decision
		wantUser string
	}{
		{"plaintext match", auth.BasicCredentials{Username: "alice", Password: "plain-pw"}, Allow, "alice"},
		{"hashed match", auth.BasicCredentials{Username: "bob", Password: "hunter2"}, Allow, "bob"},
		{"wrong password", auth.BasicCredentials{Username: "alice", Password: "nope"}, Reject, ""},
		{"unknown user", auth.BasicCredentials{Username: "mallory", Password: "plain-pw"}, Reject, ""},
		{"right password wrong user", auth.BasicCredentials{Username: "bob", Password: "plain-pw"}, Reject, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provided := tc.provided
			decision, username, err := Authorize(context.Background(), source, &provided)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision != tc.want {
				t.Errorf("got decision %v, want %v", decision, tc.want)
			}
			if username != tc.wantUser {
				t.Errorf("got username %q, want %q", username, tc.wantUser)
			}
		})
	}
}

func TestAuthorizeSourceErrorFailsClosed(t *testing.T) {
	boom := errors.New("credentials table unreachable")
	provided := &auth.BasicCredentials{Username: "alice", Password: "pw"}

	decision, _, err := Authorize(context.Background(), failingSource{err: boom}, provided)
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v, want wrapped source error", err)
	}
	if decision == Allow {
		t.Error("source error produced Allow; the guard must fail closed")
	}
}
