package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud Console, placed in the grind config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the user's access and refresh token.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local server waits for the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// ErrNoToken means the user has not authorized grind yet.
var ErrNoToken = errors.New("no Google token found; run 'grind auth' first")

// CalendarScopes are the scopes grind needs to record sessions.
var CalendarScopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// GetConfig creates an oauth2.Config from the client secrets file in configDir.
func GetConfig(configDir string, scopes []string, logger *zap.Logger) (*oauth2.Config, error) {
	clientSecretsFile := filepath.Join(configDir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	redirect, changed := normalizeRedirectURL(config.RedirectURL)
	if changed {
		logger.Debug("using localhost redirect URL", zap.String("from", config.RedirectURL), zap.String("to", redirect))
	}
	config.RedirectURL = redirect
	return config, nil
}

// normalizeRedirectURL pins localhost and out-of-band redirects to
// LocalhostAuthPort, where getTokenFromWeb listens.
func normalizeRedirectURL(raw string) (string, bool) {
	if raw == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort), true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, false
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		return raw, false
	}
	if u.Port() == LocalhostAuthPort {
		return raw, false
	}
	u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	return u.String(), true
}

// GetClient returns an authenticated *http.Client from the stored token. It
// never starts the browser flow; ErrNoToken tells the caller to run Authorize.
// Refreshed tokens are written back to disk.
func GetClient(ctx context.Context, configDir string, scopes []string, logger *zap.Logger) (*http.Client, error) {
	config, err := GetConfig(configDir, scopes, logger)
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(configDir, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, err
	}

	src := &savingTokenSource{
		src:    config.TokenSource(ctx, tok),
		path:   tokenFile,
		last:   tok,
		logger: logger,
	}
	return oauth2.NewClient(ctx, src), nil
}

// Authorize replaces any stored token with one obtained through the browser.
func Authorize(ctx context.Context, configDir string, logger *zap.Logger) error {
	config, err := GetConfig(configDir, CalendarScopes, logger)
	if err != nil {
		return err
	}

	tokenFile := filepath.Join(configDir, TokenFile)
	if err := os.Remove(tokenFile); err == nil {
		logger.Info("removed existing token file", zap.String("path", tokenFile))
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w. Please delete it manually", tokenFile, err)
	}

	tok, err := getTokenFromWeb(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to get token from web: %w", err)
	}
	return saveToken(tokenFile, tok)
}

// savingTokenSource persists the token whenever the wrapped source refreshes it.
type savingTokenSource struct {
	src    oauth2.TokenSource
	path   string
	last   *oauth2.Token
	logger *zap.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			s.logger.Warn("could not save refreshed token", zap.Error(err))
		} else {
			s.last = tok
		}
	}
	return tok, nil
}

// getTokenFromWeb runs the authorization code flow, capturing the redirect
// on a local web server.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, logger *zap.Logger) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		logger.Debug("waiting for OAuth2 redirect", zap.String("redirect_url", config.RedirectURL))
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline makes Google return a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize grind:\n%s\n", authURL)

	select {
	case authCode := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
