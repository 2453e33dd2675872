package paypal

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// refreshBuffer is how long before expiry a cached token is replaced.
const refreshBuffer = 5 * time.Minute

// fallbackLifetime applies when the token endpoint omits expires_in.
const fallbackLifetime = time.Hour

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// tokenCache hands out client-credentials access tokens. Refresh is
// request-driven; two callers racing past expiry both fetch and the last
// store wins, which is harmless because either token is valid.
type tokenCache struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
	current    atomic.Pointer[cachedToken]
}

func newTokenCache(baseURL, clientID, clientSecret string, httpClient *http.Client, now func() time.Time) *tokenCache {
	return &tokenCache{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     baseURL + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		now:        now,
	}
}

// Token returns a cached token or fetches a new one.
func (c *tokenCache) Token(ctx context.Context) (string, error) {
	if tok := c.current.Load(); tok != nil && c.now().Before(tok.expiresAt.Add(-refreshBuffer)) {
		return tok.accessToken, nil
	}
	return c.refresh(ctx)
}

func (c *tokenCache) refresh(ctx context.Context) (string, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("paypal: oauth token: %w", err)
	}
	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = c.now().Add(fallbackLifetime)
	}
	c.current.Store(&cachedToken{accessToken: tok.AccessToken, expiresAt: expiresAt})
	return tok.AccessToken, nil
}
