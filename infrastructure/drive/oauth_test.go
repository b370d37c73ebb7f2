package drive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenStore(t *testing.T) {
	store := tokenStore{path: filepath.Join(t.TempDir(), "nested", "token.json")}

	if _, err := store.load(); !os.IsNotExist(err) {
		t.Fatalf("load before save: err = %v, want not exist", err)
	}

	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("token file mode = %v, want owner-only", perm)
	}

	got, err := store.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("token = %+v, want %+v", got, want)
	}
}

func TestTokenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := (tokenStore{path: path}).load(); err == nil {
		t.Error("expected error for corrupt token file")
	}
}

func TestRandomState(t *testing.T) {
	a, err := randomState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := randomState()
	if len(a) != 32 || a == b {
		t.Errorf("states %q and %q should be distinct 32-char hex strings", a, b)
	}
}

func TestNewClientWithOAuth_InjectedService(t *testing.T) {
	svc := &mockDriveService{}
	client, err := NewClientWithOAuth(context.Background(), OAuthConfig{CredentialsFile: "/does/not/exist"}, WithDriveService(svc))
	if err != nil {
		t.Fatalf("NewClientWithOAuth: %v", err)
	}
	if client.driveService != svc {
		t.Error("injected service not used")
	}
}
