package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrPolicyIncomplete is returned when a signing policy lacks one of its three tokens.
	ErrPolicyIncomplete = errors.New("signing policy incomplete")
	// ErrNoStreams is returned when a playback manifest lists no streams.
	ErrNoStreams = errors.New("no streams available")
)

// SigningPolicy holds the CDN access tokens returned by the core index endpoint.
type SigningPolicy struct {
	Policy    string
	Signature string
	KeyPairID string
}

// PolicyPair is one entry of the signing_policies list.
type PolicyPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SigningPolicyFromPairs flattens name/value pairs into a SigningPolicy.
func SigningPolicyFromPairs(pairs []PolicyPair) (SigningPolicy, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		values[p.Name] = p.Value
	}

	var missing []string
	for _, name := range []string{"Policy", "Signature", "Key-Pair-Id"} {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return SigningPolicy{}, fmt.Errorf("%w: missing %v", ErrPolicyIncomplete, missing)
	}

	return SigningPolicy{
		Policy:    values["Policy"],
		Signature: values["Signature"],
		KeyPairID: values["Key-Pair-Id"],
	}, nil
}

// Query returns the policy as signed-URL query parameters.
func (p SigningPolicy) Query() url.Values {
	v := make(url.Values, 3)
	v.Set("Policy", p.Policy)
	v.Set("Signature", p.Signature)
	v.Set("Key-Pair-Id", p.KeyPairID)
	return v
}

// Series is the root of the catalog hierarchy.
type Series struct {
	ID      string
	Seasons []Season
}

// Season is returned by the seasons endpoint.
type Season struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"-"`
}

// Validate checks required fields.
func (s Season) Validate() error {
	if s.ID == "" {
		return errors.New("season: missing id")
	}
	return nil
}

// Episode is returned by the episodes endpoint. PlaybackInfo is filled on first play.
type Episode struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	SeriesTitle   string        `json:"series_title"`
	EpisodeNumber string        `json:"episode_number"`
	PlaybackURL   string        `json:"playback"`
	PlaybackInfo  *PlaybackInfo `json:"-"`
}

// Validate checks required fields.
func (e Episode) Validate() error {
	if e.ID == "" {
		return errors.New("episode: missing id")
	}
	if e.PlaybackURL == "" {
		return fmt.Errorf("episode %s: missing playback", e.ID)
	}
	return nil
}

// StreamInfo describes one stream variant.
type StreamInfo struct {
	HardsubLocale string `json:"hardsub_locale"`
	URL           string `json:"url"`
}

// SubtitleInfo describes one subtitle track.
type SubtitleInfo struct {
	Locale string `json:"locale"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// NamedStream pairs a stream with its key in the manifest.
type NamedStream struct {
	Key    string
	Stream StreamInfo
}

// Streams keeps manifest streams in document order.
type Streams []NamedStream

// UnmarshalJSON decodes a JSON object while preserving key order.
func (s *Streams) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("streams: expected object, got %v", tok)
	}

	out := make(Streams, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var info StreamInfo
		if err := dec.Decode(&info); err != nil {
			return fmt.Errorf("streams[%q]: %w", key, err)
		}
		if info.URL == "" {
			return fmt.Errorf("streams[%q]: missing url", key)
		}
		out = append(out, NamedStream{Key: key, Stream: info})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// PlaybackInfo is the per-episode playback manifest.
type PlaybackInfo struct {
	AudioLocale string
	Streams     Streams
	Subtitles   map[string]SubtitleInfo
}

type playbackPayload struct {
	AudioLocale string `json:"audio_locale"`
	Streams     *struct {
		DownloadHLS Streams `json:"download_hls"`
	} `json:"streams"`
	Subtitles map[string]SubtitleInfo `json:"subtitles"`
}

// UnmarshalJSON decodes the playback manifest. streams is required; subtitles may be absent.
func (p *PlaybackInfo) UnmarshalJSON(data []byte) error {
	var raw playbackPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Streams == nil {
		return errors.New("playback: missing streams")
	}

	subs := make(map[string]SubtitleInfo, len(raw.Subtitles))
	for locale, sub := range raw.Subtitles {
		if sub.URL == "" {
			return fmt.Errorf("subtitles[%q]: missing url", locale)
		}
		if sub.Locale == "" {
			sub.Locale = locale
		}
		subs[locale] = sub
	}

	*p = PlaybackInfo{
		AudioLocale: raw.AudioLocale,
		Streams:     raw.Streams.DownloadHLS,
		Subtitles:   subs,
	}
	return nil
}

// DefaultStream returns the first stream listed by the manifest.
func (p *PlaybackInfo) DefaultStream() (StreamInfo, error) {
	if len(p.Streams) == 0 {
		return StreamInfo{}, ErrNoStreams
	}
	return p.Streams[0].Stream, nil
}

// SubtitleURL returns the subtitle URL for a locale, if the manifest has one.
func (p *PlaybackInfo) SubtitleURL(locale string) (string, bool) {
	sub, ok := p.Subtitles[locale]
	if !ok {
		return "", false
	}
	return sub.URL, true
}
