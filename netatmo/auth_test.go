package netatmo

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func validCreds() Credentials {
	return Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		Username:     "user@example.com",
		Password:     "hunter2",
	}
}

// newTestClient points a client at a fake API server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(validCreds())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.base = srv.URL
	return c
}

func tokenJSON(access, refresh string, expiresIn int) string {
	return fmt.Sprintf(`{"access_token":%q,"refresh_token":%q,"expires_in":%d}`, access, refresh, expiresIn)
}

func TestNewClientValidatesCredentials(t *testing.T) {
	cases := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{"missing client id", Credentials{ClientSecret: "s", Username: "u", Password: "p"}, ErrMissingClientCredentials},
		{"missing client secret", Credentials{ClientID: "c", Username: "u", Password: "p"}, ErrMissingClientCredentials},
		{"missing username", Credentials{ClientID: "c", ClientSecret: "s", Password: "p"}, ErrMissingUserCredentials},
		{"missing password", Credentials{ClientID: "c", ClientSecret: "s", Username: "u"}, ErrMissingUserCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(tc.creds); !errors.Is(err, tc.want) {
				t.Fatalf("NewClient error = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := NewClient(validCreds()); err != nil {
		t.Fatalf("NewClient with full credentials: %v", err)
	}
}

func TestConnectAdoptsValidTokenWithoutNetworkCall(t *testing.T) {
	hits := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "unexpected request", http.StatusInternalServerError)
	}))

	future := time.Now().Add(time.Hour).Unix()
	if err := c.Connect("tok", "refresh", future); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if hits != 0 {
		t.Fatalf("Connect made %d network calls, want 0", hits)
	}
	if c.token.AccessToken != "tok" || c.token.RefreshToken != "refresh" {
		t.Fatalf("token not adopted: %+v", c.token)
	}
}

func TestConnectFallsBackToRefreshGrant(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "r123" {
			t.Errorf("refresh_token = %q, want r123", got)
		}
		if got := r.PostForm.Get("client_id"); got != "cid" {
			t.Errorf("client_id = %q, want cid", got)
		}
		fmt.Fprint(w, tokenJSON("fresh", "r456", 10800))
	}))

	if err := c.Connect("", "r123", 0); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.token.AccessToken != "fresh" || c.token.RefreshToken != "r456" {
		t.Fatalf("token not stored: %+v", c.token)
	}
	if !c.token.Expiry.After(time.Now()) {
		t.Fatalf("expiry not in the future: %s", c.token.Expiry)
	}
}

func TestConnectFallsBackToPasswordGrant(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		// Netatmo's vendor-specific grant name, not standard OAuth2.
		if got := r.PostForm.Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.PostForm.Get("username"); got != "user@example.com" {
			t.Errorf("username = %q", got)
		}
		if got := r.PostForm.Get("password"); got != "hunter2" {
			t.Errorf("password = %q", got)
		}
		if got := r.PostForm.Get("scope"); got != "read_station read_homecoach" {
			t.Errorf("scope = %q", got)
		}
		fmt.Fprint(w, tokenJSON("fresh", "r1", 10800))
	}))

	if err := c.Connect("", "", 0); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.token.AccessToken != "fresh" {
		t.Fatalf("token not stored: %+v", c.token)
	}
}

func TestConnectExpiredSuppliedTokenTriggersRefresh(t *testing.T) {
	refreshed := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		refreshed = true
		fmt.Fprint(w, tokenJSON("fresh", "r2", 10800))
	}))

	past := time.Now().Add(-time.Hour).Unix()
	if err := c.Connect("stale", "r1", past); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !refreshed {
		t.Fatal("expired supplied token did not trigger the refresh grant")
	}
}

func TestAuthenticateByRefreshTokenRequiresToken(t *testing.T) {
	c, err := NewClient(validCreds())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.AuthenticateByRefreshToken(""); !errors.Is(err, ErrMissingRefreshToken) {
		t.Fatalf("error = %v, want ErrMissingRefreshToken", err)
	}
}

func TestMalformedAuthResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing access token", tokenJSON("", "r1", 10800)},
		{"missing refresh token", tokenJSON("a1", "", 10800)},
		{"zero expiry", tokenJSON("a1", "r1", 0)},
		{"negative expiry", tokenJSON("a1", "r1", -5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			if err := c.Connect("", "", 0); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("error = %v, want ErrInvalidToken", err)
			}
			if c.token.AccessToken != "" {
				t.Fatalf("malformed response must not set a token, got %+v", c.token)
			}
		})
	}
}
