package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const testCredentials = `{
	"installed": {
		"client_id": "client.apps.googleusercontent.com",
		"client_secret": "secret",
		"redirect_uris": ["http://localhost"],
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token"
	}
}`

func writeCredentials(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(testCredentials), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNormalizeRedirectURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"http://localhost", "http://localhost:6789", true},
		{"http://127.0.0.1:8080/cb", "http://127.0.0.1:6789/cb", true},
		{"http://localhost:6789/cb", "http://localhost:6789/cb", false},
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback", true},
		{"https://example.com/cb", "https://example.com/cb", false},
	}
	for _, tt := range tests {
		got, changed := normalizeRedirectURL(tt.in)
		if got != tt.want || changed != tt.changed {
			t.Errorf("normalizeRedirectURL(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
		}
	}
}

func TestGetConfig(t *testing.T) {
	dir := writeCredentials(t)
	config, err := GetConfig(dir, CalendarScopes, zap.NewNop())
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if config.ClientID != "client.apps.googleusercontent.com" {
		t.Errorf("Unexpected client id %s", config.ClientID)
	}
	if config.RedirectURL != "http://localhost:6789" {
		t.Errorf("Expected redirect pinned to auth port, got %s", config.RedirectURL)
	}
}

func TestGetClientWithoutToken(t *testing.T) {
	dir := writeCredentials(t)
	_, err := GetClient(context.Background(), dir, CalendarScopes, zap.NewNop())
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("Expected ErrNoToken, got %v", err)
	}
}

func TestGetClientWithToken(t *testing.T) {
	dir := writeCredentials(t)
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
	if err := saveToken(filepath.Join(dir, TokenFile), tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}

	client, err := GetClient(context.Background(), dir, CalendarScopes, zap.NewNop())
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("Expected client")
	}
}

type fakeSource struct {
	tok *oauth2.Token
}

func (f *fakeSource) Token() (*oauth2.Token, error) { return f.tok, nil }

func TestSavingTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	old := &oauth2.Token{AccessToken: "old", RefreshToken: "r"}
	src := &fakeSource{tok: old}
	sts := &savingTokenSource{src: src, path: path, last: old, logger: zap.NewNop()}

	if _, err := sts.Token(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Expected unchanged token not to be written, stat err: %v", err)
	}

	src.tok = &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	if _, err := sts.Token(); err != nil {
		t.Fatal(err)
	}
	saved, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("Expected refreshed token on disk: %v", err)
	}
	if saved.AccessToken != "new" {
		t.Errorf("Expected saved access token 'new', got %s", saved.AccessToken)
	}
}
