package netatmo

// This file contains authentication related functions and structs.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang/glog"
	"golang.org/x/oauth2"
)

const tokenPath = "/oauth2/token"

// Scope requested by the password grant: weather station and air quality
// read access.
const authScope = "read_station read_homecoach"

// Credentials identifies the application and the user account. ClientID and
// ClientSecret are required for any grant; Username and Password are required
// for the password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

func (c Credentials) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingClientCredentials
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingUserCredentials
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// token validates the auth response and converts it to a stored token. The
// vendor must supply all three parts; anything less is a malformed response.
func (tr *tokenResponse) token() (oauth2.Token, error) {
	if tr.AccessToken == "" || tr.RefreshToken == "" || tr.ExpiresIn <= 0 {
		return oauth2.Token{}, ErrInvalidToken
	}
	return oauth2.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// Connect establishes a usable access token. A supplied token that is still
// valid at expiresAt (epoch seconds) is adopted as-is without any network
// call; otherwise a refresh-token grant is attempted (with the supplied or
// previously stored refresh token), and as a last resort the password grant
// runs. Calling Connect("", "", 0) on a fresh client forces full
// authentication.
func (c *Client) Connect(accessToken, refreshToken string, expiresAt int64) error {
	if accessToken != "" && time.Unix(expiresAt, 0).After(time.Now()) {
		glog.V(1).Info("adopting supplied access token")
		c.token.AccessToken = accessToken
		c.token.Expiry = time.Unix(expiresAt, 0)
		if refreshToken != "" {
			c.token.RefreshToken = refreshToken
		}
		return nil
	}
	if refreshToken == "" {
		refreshToken = c.token.RefreshToken
	}
	if refreshToken != "" {
		return c.AuthenticateByRefreshToken(refreshToken)
	}
	return c.AuthenticateByClientCredentials()
}

// AuthenticateByRefreshToken trades a refresh token for a new access token.
func (c *Client) AuthenticateByRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingRefreshToken
	}
	return c.getToken(url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"refresh_token": {refreshToken},
	})
}

// AuthenticateByClientCredentials authenticates with the full credential set.
// Netatmo names this grant "password" and takes the username and password
// alongside the client credentials; the string is the vendor's, not standard
// OAuth2 naming.
func (c *Client) AuthenticateByClientCredentials() error {
	return c.getToken(url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"username":      {c.creds.Username},
		"password":      {c.creds.Password},
		"scope":         {authScope},
	})
}

func (c *Client) getToken(form url.Values) error {
	body, err := c.do(http.MethodPost, tokenPath, form, false)
	if err != nil {
		return err
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("netatmo: error unmarshalling token response: %w", err)
	}
	tok, err := tr.token()
	if err != nil {
		return err
	}
	c.token = tok
	glog.V(1).Infof("authenticated, token expires %s", tok.Expiry.Format(time.RFC3339))
	return nil
}
