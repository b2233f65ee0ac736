package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/yafyz/vrv-player/internal/config"
	"github.com/yafyz/vrv-player/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var testPolicy = model.SigningPolicy{Policy: "pol", Signature: "sig", KeyPairID: "kp"}

func newTestClient(direct, proxied roundTripFunc) *Client {
	return New(
		&http.Client{Transport: direct},
		&http.Client{Transport: proxied},
		"https://vrv.test/",
		"https://api.vrv.test",
	)
}

func failTransport(t *testing.T) roundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request on this transport: %s", req.URL)
		return nil, nil
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func assertPolicyParams(t *testing.T, q url.Values) {
	t.Helper()
	if q.Get("Policy") != "pol" || q.Get("Signature") != "sig" || q.Get("Key-Pair-Id") != "kp" {
		t.Fatalf("missing signed-url params: %v", q)
	}
}

func TestFetchSigningPolicySuccess(t *testing.T) {
	client := newTestClient(failTransport(t), func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "https://api.vrv.test/core/index" {
			t.Fatalf("unexpected url: %s", req.URL)
		}
		auth := req.Header.Get("Authorization")
		if !strings.HasPrefix(auth, `OAuth oauth_consumer_key="key", oauth_nonce="`) {
			t.Fatalf("unexpected authorization header: %s", auth)
		}
		if !strings.Contains(auth, `oauth_signature_method="HMAC-SHA1"`) {
			t.Fatalf("missing signature method: %s", auth)
		}
		return response(200, `{"signing_policies":[
			{"name":"Policy","value":"pol"},
			{"name":"Signature","value":"sig"},
			{"name":"Key-Pair-Id","value":"kp"}
		]}`), nil
	})

	policy, err := client.FetchSigningPolicy(context.Background(), Credentials{Key: "key", Secret: "secret"})
	if err != nil {
		t.Fatalf("FetchSigningPolicy failed: %v", err)
	}
	if policy != testPolicy {
		t.Fatalf("unexpected policy: %+v", policy)
	}
}

func TestFetchSigningPolicyStatusError(t *testing.T) {
	client := newTestClient(failTransport(t), func(req *http.Request) (*http.Response, error) {
		return response(401, `{"code":"bad_auth"}`), nil
	})

	_, err := client.FetchSigningPolicy(context.Background(), Credentials{Key: "key", Secret: "secret"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != 401 || statusErr.Body != `{"code":"bad_auth"}` {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestFetchSigningPolicyIncomplete(t *testing.T) {
	client := newTestClient(failTransport(t), func(req *http.Request) (*http.Response, error) {
		return response(200, `{"signing_policies":[{"name":"Policy","value":"pol"}]}`), nil
	})

	_, err := client.FetchSigningPolicy(context.Background(), Credentials{Key: "key", Secret: "secret"})
	if !errors.Is(err, model.ErrPolicyIncomplete) {
		t.Fatalf("expected ErrPolicyIncomplete, got %v", err)
	}
}

func TestSeasonsSuccess(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/cms/v2/US/M2/-/seasons" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.Header.Get("Accept") != "application/json" {
			t.Fatalf("missing accept header")
		}
		q := req.URL.Query()
		if q.Get("series_id") != "S1" {
			t.Fatalf("unexpected series_id: %v", q)
		}
		assertPolicyParams(t, q)
		return response(200, `{"items":[{"id":"a","title":"Season 1"},{"id":"b","title":"Season 2","season_number":2}]}`), nil
	}, failTransport(t))

	seasons, err := client.Seasons(context.Background(), "S1", testPolicy)
	if err != nil {
		t.Fatalf("Seasons failed: %v", err)
	}
	if len(seasons) != 2 || seasons[0].ID != "a" || seasons[1].SeasonNumber != 2 {
		t.Fatalf("unexpected seasons: %+v", seasons)
	}
}

func TestSeasonsMissingID(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return response(200, `{"items":[{"title":"nameless"}]}`), nil
	}, failTransport(t))

	if _, err := client.Seasons(context.Background(), "S1", testPolicy); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestEpisodesSuccess(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/cms/v2/US/M2/-/episodes" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("season_id") != "a" {
			t.Fatalf("unexpected season_id: %v", q)
		}
		assertPolicyParams(t, q)
		return response(200, `{"items":[{"id":"e1","title":"Pilot","episode_number":"1","playback":"https://api.vrv.test/play/e1"}]}`), nil
	}, failTransport(t))

	episodes, err := client.Episodes(context.Background(), "a", testPolicy)
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(episodes) != 1 || episodes[0].PlaybackURL != "https://api.vrv.test/play/e1" || episodes[0].PlaybackInfo != nil {
		t.Fatalf("unexpected episodes: %+v", episodes)
	}
}

func TestEpisodesMissingPlayback(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return response(200, `{"items":[{"id":"e1","title":"Pilot"}]}`), nil
	}, failTransport(t))

	if _, err := client.Episodes(context.Background(), "a", testPolicy); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestPlaybackSignsURL(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/play/e1" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("locale") != "en-US" {
			t.Fatalf("existing query should be kept: %v", q)
		}
		assertPolicyParams(t, q)
		return response(200, `{"audio_locale":"ja-JP","streams":{"download_hls":{"":{"url":"https://cdn/a.m3u8"}}}}`), nil
	}, failTransport(t))

	info, err := client.Playback(context.Background(), "https://api.vrv.test/play/e1?locale=en-US", testPolicy)
	if err != nil {
		t.Fatalf("Playback failed: %v", err)
	}
	stream, err := info.DefaultStream()
	if err != nil || stream.URL != "https://cdn/a.m3u8" {
		t.Fatalf("unexpected stream: %+v err=%v", stream, err)
	}
}

func TestSignURLKeepsSignedURL(t *testing.T) {
	raw := "https://api.vrv.test/play/e1?Policy=x&Signature=y&Key-Pair-Id=z"
	got, err := SignURL(raw, testPolicy)
	if err != nil {
		t.Fatalf("SignURL failed: %v", err)
	}
	if got != raw {
		t.Fatalf("signed url should be unchanged, got %s", got)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return response(500, ``), nil
	}, failTransport(t))

	_, err := client.Seasons(context.Background(), "S1", testPolicy)
	if err == nil || !strings.Contains(err.Error(), "unexpected status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return response(200, `{invalid json`), nil
	}, failTransport(t))

	_, err := client.Episodes(context.Background(), "a", testPolicy)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestProxyTransport(t *testing.T) {
	tr, err := ProxyTransport(config.ProxyConfig{Username: "user", Password: "pass", Host: "proxy.test:3128"})
	if err != nil {
		t.Fatalf("ProxyTransport failed: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "https://vrv.test/watch/x/", nil)
	proxyURL, err := tr.Proxy(req)
	if err != nil {
		t.Fatalf("Proxy func failed: %v", err)
	}
	if proxyURL.Host != "proxy.test:3128" || proxyURL.User.Username() != "user" {
		t.Fatalf("unexpected proxy url: %s", proxyURL)
	}
	if tr.ProxyConnectHeader.Get("Proxy-Authorization") != "Basic dXNlcjpwYXNz" {
		t.Fatalf("unexpected proxy auth header: %v", tr.ProxyConnectHeader)
	}
}
