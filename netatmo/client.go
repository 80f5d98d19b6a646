// Package netatmo is a client for the Netatmo weather and air quality cloud
// API. It owns the OAuth2 token state, re-authenticates transparently when
// the vendor reports an expired token, and exposes typed accessors for the
// endpoints the bridge consumes.
package netatmo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/oauth2"
)

const baseURL = "https://api.netatmo.com"

// Vendor error code signalling an expired access token on a 401/403.
const errCodeTokenExpired = 3

// A stuck request must not delay the poll schedule indefinitely.
const requestTimeout = 10 * time.Second

// Client represents the Netatmo API client. It is not safe for concurrent
// use: the poll loop is the single caller and serializes all requests, so
// token state is mutated without locking.
type Client struct {
	http  *http.Client
	base  string
	creds Credentials
	token oauth2.Token
}

// NewClient validates the credentials and returns an unauthenticated client.
// Call Connect before issuing data requests. Credential validation failures
// are fatal and must prevent startup.
func NewClient(creds Credentials) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	return &Client{
		http:  &http.Client{Timeout: requestTimeout},
		base:  baseURL,
		creds: creds,
	}, nil
}

type errorBody struct {
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// do issues one request against the API. POST parameters are sent as a
// form-urlencoded body, GET parameters as a query string. Every path except
// the token endpoint requires a stored access token and gets it attached as a
// bearer Authorization header.
//
// When the vendor answers 401/403 with error code 3 on a first attempt, the
// stored access token is cleared, Connect is re-run to force a refresh, and
// the identical request is re-issued exactly once. The isRetry flag, not a
// counter, bounds the recursion: a second expiry propagates as a normal
// error. The token endpoint itself never triggers re-auth; its errors go
// straight to classification, since re-authenticating there would recurse
// through Connect without ever reaching the isRetry bound.
func (c *Client) do(method, path string, params url.Values, isRetry bool) ([]byte, error) {
	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequest(method, c.base+path, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u := c.base + path
		if len(params) > 0 {
			u += "?" + params.Encode()
		}
		req, err = http.NewRequest(method, u, nil)
	}
	if err != nil {
		return nil, &RequestError{Path: path, Message: err.Error()}
	}

	if path != tokenPath {
		if c.token.AccessToken == "" {
			return nil, ErrMissingAccessToken
		}
		req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)
	}

	glog.V(2).Infof("%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Path: path, Message: err.Error()}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		glog.V(3).Infof("%s response: %s", path, body)
		return body, nil
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	var ae apiError
	if len(eb.Error) > 0 {
		_ = json.Unmarshal(eb.Error, &ae)
	}

	expired := resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
	if !isRetry && path != tokenPath && expired && ae.Code == errCodeTokenExpired {
		glog.V(1).Infof("access token expired on %s, re-authenticating", path)
		c.token.AccessToken = ""
		if err := c.Connect("", c.token.RefreshToken, c.token.Expiry.Unix()); err != nil {
			return nil, err
		}
		return c.do(method, path, params, true)
	}

	switch {
	case eb.ErrorDescription != "":
		return nil, &RequestError{Path: path, Message: eb.ErrorDescription, Status: resp.StatusCode}
	case ae.Message != "":
		return nil, &RequestError{Path: path, Message: ae.Message, Status: resp.StatusCode}
	case len(eb.Error) > 0:
		return nil, &RequestError{Path: path, Message: string(eb.Error), Status: resp.StatusCode}
	default:
		return nil, &RequestError{Path: path, Message: resp.Status, Status: resp.StatusCode}
	}
}
