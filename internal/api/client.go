package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yafyz/vrv-player/internal/config"
	"github.com/yafyz/vrv-player/internal/model"
	"github.com/yafyz/vrv-player/internal/oauth"
)

const (
	coreIndexPath = "/core/index"
	cmsPath       = "/cms/v2/US/M2/-"

	maxErrorBody = 4 << 10
)

// Client wraps calls to the VRV API.
//
// The watch page and core index go through the authenticated proxy; catalog
// and playback requests use the direct client.
type Client struct {
	httpClient  *http.Client
	proxyClient *http.Client
	siteURL     string
	apiURL      string
}

// New creates an API client.
func New(httpClient, proxyClient *http.Client, siteURL, apiURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		proxyClient: proxyClient,
		siteURL:     strings.TrimRight(siteURL, "/"),
		apiURL:      strings.TrimRight(apiURL, "/"),
	}
}

// ProxyTransport returns a transport that tunnels through the configured proxy.
func ProxyTransport(p config.ProxyConfig) (*http.Transport, error) {
	proxyURL, err := p.URL()
	if err != nil {
		return nil, err
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = http.ProxyURL(proxyURL)
	t.ProxyConnectHeader = http.Header{
		"Proxy-Authorization": []string{p.AuthorizationHeader()},
	}
	return t, nil
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

type coreIndex struct {
	SigningPolicies []model.PolicyPair `json:"signing_policies"`
}

// FetchSigningPolicy exchanges an OAuth-signed core index request for CDN signing tokens.
func (c *Client) FetchSigningPolicy(ctx context.Context, creds Credentials) (model.SigningPolicy, error) {
	endpoint := c.apiURL + coreIndexPath

	header, err := oauth.New(creds.Key, creds.Secret).Header(http.MethodGet, endpoint)
	if err != nil {
		return model.SigningPolicy{}, fmt.Errorf("sign core index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.SigningPolicy{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Accept", "application/json")

	var out coreIndex
	if err := c.doJSON(c.proxyClient, req, &out); err != nil {
		return model.SigningPolicy{}, err
	}

	policy, err := model.SigningPolicyFromPairs(out.SigningPolicies)
	if err != nil {
		return model.SigningPolicy{}, fmt.Errorf("core index: %w", err)
	}
	return policy, nil
}

type listResp[T any] struct {
	Items []T `json:"items"`
}

// Seasons returns the seasons of a series in API order.
func (c *Client) Seasons(ctx context.Context, seriesID string, policy model.SigningPolicy) ([]model.Season, error) {
	u := c.cmsURL("seasons", "series_id", seriesID, policy)
	var out listResp[model.Season]
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	for i, s := range out.Items {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("decode %s: item %d: %w", u, i, err)
		}
	}
	return out.Items, nil
}

// Episodes returns the episodes of a season in API order.
func (c *Client) Episodes(ctx context.Context, seasonID string, policy model.SigningPolicy) ([]model.Episode, error) {
	u := c.cmsURL("episodes", "season_id", seasonID, policy)
	var out listResp[model.Episode]
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	for i, e := range out.Items {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("decode %s: item %d: %w", u, i, err)
		}
	}
	return out.Items, nil
}

// Playback fetches an episode's playback manifest.
func (c *Client) Playback(ctx context.Context, playbackURL string, policy model.SigningPolicy) (*model.PlaybackInfo, error) {
	u, err := SignURL(playbackURL, policy)
	if err != nil {
		return nil, err
	}
	var info model.PlaybackInfo
	if err := c.getJSON(ctx, u, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SignURL appends the policy parameters unless the URL is already signed.
func SignURL(rawURL string, policy model.SigningPolicy) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	q := u.Query()
	if q.Get("Policy") != "" {
		return rawURL, nil
	}
	for k, v := range policy.Query() {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) cmsURL(resource, idParam, id string, policy model.SigningPolicy) string {
	q := policy.Query()
	q.Set(idParam, id)
	return fmt.Sprintf("%s%s/%s?%s", c.apiURL, cmsPath, resource, q.Encode())
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(c.httpClient, req, v)
}

func (c *Client) doJSON(httpClient *http.Client, req *http.Request, v any) error {
	url := req.URL.String()

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}
