package auth

import (
	"encoding/base64"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("listener-secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "listener-secret" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPasswordHash("listener-secret", hash) {
		t.Error("correct password did not verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password verified")
	}
	if CheckPasswordHash("listener-secret", "not-a-bcrypt-hash") {
		t.Error("garbage hash verified")
	}
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestDecodeBasic(t *testing.T) {
	creds, ok := DecodeBasic(basicHeader("alice", "s3cret"))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if creds.Username != "alice" || creds.Password != "s3cret" {
		t.Errorf("got %q/%q, want alice/s3cret", creds.Username, creds.Password)
	}
}

func TestDecodeBasicPasswordWithColon(t *testing.T) {
	// Only the first colon separates username from password.
	creds, ok := DecodeBasic(basicHeader("alice", "pa:ss:word"))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if creds.Password != "pa:ss:word" {
		t.Errorf("got password %q, want pa:ss:word", creds.Password)
	}
}

func TestDecodeBasicRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"bearer scheme", "Bearer abcdef"},
		{"bad base64", "Basic %%%%"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("justausername"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := DecodeBasic(tc.header); ok {
				t.Errorf("header %q decoded but should not", tc.header)
			}
		})
	}
}
