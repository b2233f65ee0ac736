package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gocolly/colly"
)

var (
	// ErrConfigNotFound is returned when the watch page has no embedded app config.
	ErrConfigNotFound = errors.New("app config not found in page")
	// ErrCredentialsMissing is returned when the app config has no OAuth key or secret.
	ErrCredentialsMissing = errors.New("oauth credentials missing from app config")
)

var appConfigMarker = regexp.MustCompile(`window\.__APP_CONFIG__\s*=\s*`)

// Credentials is the OAuth consumer pair embedded in the watch page.
type Credentials struct {
	Key    string
	Secret string
}

type appConfig struct {
	CxAPIParams struct {
		OAuthKey    string `json:"oAuthKey"`
		OAuthSecret string `json:"oAuthSecret"`
	} `json:"cxApiParams"`
}

// WatchURL returns the watch page for a series.
func (c *Client) WatchURL(seriesID string) string {
	return c.siteURL + "/watch/" + url.PathEscape(seriesID) + "/"
}

// ScrapeCredentials fetches a watch page through the proxy and extracts the OAuth pair.
func (c *Client) ScrapeCredentials(ctx context.Context, pageURL string) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	col := colly.NewCollector()
	if c.proxyClient.Transport != nil {
		col.WithTransport(c.proxyClient.Transport)
	} else {
		col.WithTransport(http.DefaultTransport)
	}
	if c.proxyClient.Timeout > 0 {
		col.SetRequestTimeout(c.proxyClient.Timeout)
	}

	var (
		creds    Credentials
		found    bool
		parseErr error
	)
	col.OnHTML("script", func(e *colly.HTMLElement) {
		if found {
			return
		}
		got, ok, err := extractCredentials(e.Text)
		if !ok {
			return
		}
		found = true
		creds, parseErr = got, err
	})

	if err := col.Visit(pageURL); err != nil {
		return Credentials{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if !found {
		return Credentials{}, fmt.Errorf("%s: %w", pageURL, ErrConfigNotFound)
	}
	if parseErr != nil {
		return Credentials{}, fmt.Errorf("%s: %w", pageURL, parseErr)
	}
	return creds, nil
}

// extractCredentials reads the OAuth pair from a script body. ok is false when the
// script does not assign the app config.
func extractCredentials(script string) (creds Credentials, ok bool, err error) {
	loc := appConfigMarker.FindStringIndex(script)
	if loc == nil {
		return Credentials{}, false, nil
	}

	var cfg appConfig
	dec := json.NewDecoder(strings.NewReader(script[loc[1]:]))
	if err := dec.Decode(&cfg); err != nil {
		return Credentials{}, true, fmt.Errorf("decode app config: %w", err)
	}

	creds = Credentials{
		Key:    cfg.CxAPIParams.OAuthKey,
		Secret: cfg.CxAPIParams.OAuthSecret,
	}
	if creds.Key == "" || creds.Secret == "" {
		return Credentials{}, true, ErrCredentialsMissing
	}
	return creds, true, nil
}
