package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DefaultCallbackAddr is where the local OAuth redirect listener binds
const DefaultCallbackAddr = "localhost:8085"

// OAuthConfig holds the configuration for OAuth 2.0 authentication
type OAuthConfig struct {
	CredentialsFile string    // OAuth client credentials JSON (desktop app)
	TokenFile       string    // cached token, written with owner-only permissions
	CallbackAddr    string    // defaults to DefaultCallbackAddr
	Output          io.Writer // login instructions
}

// NewClientWithOAuth creates a Drive client authorised as the user.
// The browser flow only runs when no usable token is cached.
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.driveService != nil {
		return c, nil
	}

	svc, err := newOAuthDriveService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.driveService = svc
	return c, nil
}

func newOAuthDriveService(ctx context.Context, cfg OAuthConfig) (*GoogleDriveService, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.CallbackAddr == "" {
		cfg.CallbackAddr = DefaultCallbackAddr
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	oc, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}
	oc.RedirectURL = "http://" + cfg.CallbackAddr + "/callback"

	store := tokenStore{path: cfg.TokenFile}
	token, err := cachedToken(ctx, oc, store, cfg.Output)
	if err != nil {
		token, err = authorize(ctx, oc, cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to get OAuth token: %w", err)
		}
		if err := store.save(token); err != nil {
			fmt.Fprintf(cfg.Output, "Warning: couldn't save token: %v\n", err)
		}
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &GoogleDriveService{service: srv}, nil
}

// tokenStore persists an OAuth token as JSON
type tokenStore struct {
	path string
}

func (s tokenStore) load() (*oauth2.Token, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("corrupt token file %s: %w", s.path, err)
	}
	return token, nil
}

func (s tokenStore) save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(token); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// cachedToken returns the stored token, refreshed if it expired. A refreshed token is saved back.
func cachedToken(ctx context.Context, oc *oauth2.Config, store tokenStore, out io.Writer) (*oauth2.Token, error) {
	token, err := store.load()
	if err != nil {
		return nil, err
	}
	fresh, err := oc.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, err
	}
	if fresh.AccessToken != token.AccessToken {
		if err := store.save(fresh); err != nil {
			fmt.Fprintf(out, "Warning: couldn't save refreshed token: %v\n", err)
		}
	}
	return fresh, nil
}

// authorize runs the installed-app flow: the user signs in with a browser and Google
// redirects the code to a listener on CallbackAddr
func authorize(ctx context.Context, oc *oauth2.Config, cfg OAuthConfig) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	report := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			report(fmt.Errorf("authorization denied: %s", q.Get("error")))
			fmt.Fprintln(w, "Authorization was denied. You can close this window.")
			return
		case q.Get("code") == "":
			report(errors.New("no code in callback"))
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			return
		}
		select {
		case codes <- q.Get("code"):
		default:
		}
		fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	server := &http.Server{Addr: cfg.CallbackAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(err)
		}
	}()
	defer server.Shutdown(context.WithoutCancel(ctx))

	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(cfg.Output)
	fmt.Fprintln(cfg.Output, "Opening browser for Google authentication...")
	fmt.Fprintln(cfg.Output, "If the browser doesn't open, please visit this URL:")
	fmt.Fprintln(cfg.Output)
	fmt.Fprintln(cfg.Output, authURL)
	fmt.Fprintln(cfg.Output)
	openBrowser(authURL)

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oc.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}
	fmt.Fprintln(cfg.Output, "Authentication successful!")
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("unable to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// openBrowser opens a URL in the default browser, best effort
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		for _, opener := range []string{"xdg-open", "wslview"} {
			if _, err := exec.LookPath(opener); err == nil {
				cmd = exec.Command(opener, url)
				break
			}
		}
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}

	if cmd != nil {
		cmd.Start()
	}
}
