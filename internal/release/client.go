package release

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v52/github"
	"golang.org/x/oauth2"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// DefaultAPITimeout bounds each release feed request.
const DefaultAPITimeout = 30 * time.Second

// NewHTTPClient returns an HTTP client that authenticates with token when it
// is non-empty. A zero timeout leaves requests unbounded, which downloads rely on.
func NewHTTPClient(ctx context.Context, token string, timeout time.Duration) *http.Client {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = timeout
	return hc
}

// NewClient returns a GitHub client using hc. An empty apiURL keeps the
// public api.github.com endpoint.
func NewClient(hc *http.Client, apiURL string) (*github.Client, error) {
	client := github.NewClient(hc)
	if apiURL == "" {
		return client, nil
	}

	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	base, err := url.Parse(apiURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("invalid api-url %q", apiURL), err)
	}
	client.BaseURL = base
	return client, nil
}
