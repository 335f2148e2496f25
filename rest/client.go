package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Config parameterizes a Client. Zero values get sensible fallbacks: a
// 30-second http.Client, an in-memory session store, the standard logger.
type Config struct {
	// BaseURL is the admin API root, for example "https://api.example.com".
	// Resource paths are appended under /admin/.
	BaseURL string
	// HTTPClient overrides the transport. Tests point it at httptest servers.
	HTTPClient *http.Client
	Logger     *logrus.Logger
	Session    SessionStore
	// OnAuthExpired runs (once per failure) after the session has been
	// cleared, so the embedding application can route to its sign-in flow.
	OnAuthExpired func()
	// CacheSize bounds the read cache entry count.
	CacheSize int
}

// Client is the admin-API gateway. One instance is shared by every
// Resource; all methods are safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	log     *logrus.Logger
	session SessionStore
	onAuth  func()
	cache   *readCache
	flight  singleflight.Group
}

func NewClient(cfg Config) *Client {
	c := &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		log:     cfg.Logger,
		session: cfg.Session,
		onAuth:  cfg.OnAuthExpired,
		cache:   newReadCache(cfg.CacheSize),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.session == nil {
		c.session = NewMemoryStore()
	}
	return c
}

// SignIn exchanges credentials for a session and stores it.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	raw, reqErr := c.roundTrip(ctx, http.MethodPost, "/auth/sign_in", body, false)
	if reqErr != nil {
		return reqErr
	}
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return networkError(err)
	}
	c.session.Set(Session{Token: out.Token, UserID: out.UserID, Role: out.Role})
	c.cache.purge()
	return nil
}

// Session returns the current operator session.
func (c *Client) Session() Session { return c.session.Get() }

// SignedURL resolves a stored document key to a short-lived download URL.
// The result is never cached; signed links expire.
func (c *Client) SignedURL(ctx context.Context, key string) (string, error) {
	q := url.Values{"key": []string{key}}
	raw, reqErr := c.roundTrip(ctx, http.MethodGet, "/admin/documents/signed_url?"+q.Encode(), nil, true)
	if reqErr != nil {
		return "", reqErr
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", networkError(err)
	}
	return out.URL, nil
}

// SignOut drops the session and the read cache.
func (c *Client) SignOut() {
	c.session.Clear()
	c.cache.purge()
}

// Invalidate bumps the generation for a resource, orphaning its cached
// reads. Mutations call it automatically; it is exported for out-of-band
// invalidation (server push, another tab).
func (c *Client) Invalidate(resource string) {
	c.cache.invalidate(resource)
}

// get performs a cached, coalesced GET under /admin/. Identical concurrent
// requests share one round trip.
func (c *Client) get(ctx context.Context, resource, path string, query url.Values) ([]byte, error) {
	gen := c.cache.generation(resource)
	key := c.cache.key(resource, gen, path+"?"+query.Encode())
	if body, ok := c.cache.get(key); ok {
		return body, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if body, ok := c.cache.get(key); ok {
			return body, nil
		}
		p := path
		if q := query.Encode(); q != "" {
			p += "?" + q
		}
		body, reqErr := c.roundTrip(ctx, http.MethodGet, p, nil, true)
		if reqErr != nil {
			return nil, reqErr
		}
		c.cache.put(resource, gen, key, body)
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// mutate performs a write under /admin/ and invalidates the resource on
// success.
func (c *Client) mutate(ctx context.Context, method, resource, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	raw, reqErr := c.roundTrip(ctx, method, path, body, true)
	if reqErr != nil {
		return nil, reqErr
	}
	c.cache.invalidate(resource)
	return raw, nil
}

// roundTrip is the single choke point for HTTP. It attaches the bearer
// token, runs the request, maps failures onto the RequestError taxonomy and
// unwraps the {"data": ...} envelope.
func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, *RequestError) {
	if authed {
		if tok := c.session.Get().Token; TokenExpired(tok, time.Now()) {
			c.log.WithField("path", path).Info("session token expired, tearing down")
			c.tearDownSession()
			return nil, &RequestError{Status: http.StatusUnauthorized, Kind: KindAuth, Message: "session expired"}
		}
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, networkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if tok := c.session.Get().Token; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": method, "path": path}).Warn("request failed")
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	c.log.WithFields(logrus.Fields{
		"method": method, "path": path, "status": resp.StatusCode,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := newRequestError(resp.StatusCode, raw)
		if reqErr.Kind == KindAuth {
			c.tearDownSession()
		}
		return nil, reqErr
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	return raw, nil
}

// tearDownSession clears the session and cache. The hook fires only when a
// live session was actually torn down, so repeated failures after the first
// expiry stay quiet.
func (c *Client) tearDownSession() {
	had := c.session.Get().Valid()
	c.session.Clear()
	c.cache.purge()
	if had && c.onAuth != nil {
		c.onAuth()
	}
}
