package main

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/yafyz/vrv-player/internal/api"
	"github.com/yafyz/vrv-player/internal/logging"
	"github.com/yafyz/vrv-player/internal/model"
	"github.com/yafyz/vrv-player/internal/prompt"
)

var seriesURLPattern = regexp.MustCompile(`vrv\.co/series/([^/?#]+)`)

// catalogAPI is the part of api.Client used after the signing policy is known.
type catalogAPI interface {
	Seasons(ctx context.Context, seriesID string, policy model.SigningPolicy) ([]model.Season, error)
	Episodes(ctx context.Context, seasonID string, policy model.SigningPolicy) ([]model.Episode, error)
	Playback(ctx context.Context, playbackURL string, policy model.SigningPolicy) (*model.PlaybackInfo, error)
}

// seriesIDFromArg accepts a bare series id or a vrv.co/series URL.
func seriesIDFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if m := seriesURLPattern.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	return arg
}

// fetchSigningPolicy scrapes fresh credentials and signs a new request on every attempt.
func fetchSigningPolicy(ctx context.Context, client *api.Client, seriesID string, rp retryPolicy) (model.SigningPolicy, error) {
	pageURL := client.WatchURL(seriesID)
	return withRetryResult(ctx, rp, func() (model.SigningPolicy, error) {
		creds, err := client.ScrapeCredentials(ctx, pageURL)
		if err != nil {
			return model.SigningPolicy{}, err
		}
		return client.FetchSigningPolicy(ctx, creds)
	})
}

// heldWarnings collects retry warnings while a spinner owns the terminal.
type heldWarnings struct {
	mu    sync.Mutex
	lines []string
}

// onError returns a retry hook that records each failed attempt.
func (h *heldWarnings) onError(attempts int) func(int, error) {
	return func(attempt int, err error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.lines = append(h.lines, fmt.Sprintf("Attempt %d/%d failed: %v", attempt, attempts, err))
	}
}

// flush logs the held warnings in order and empties the buffer.
func (h *heldWarnings) flush(logger *logging.Logger) {
	h.mu.Lock()
	lines := h.lines
	h.lines = nil
	h.mu.Unlock()

	for _, line := range lines {
		logger.Warnf("%s", line)
	}
}

func loadSeries(
	ctx context.Context,
	client catalogAPI,
	seriesID string,
	policy model.SigningPolicy,
	rp retryPolicy,
	logger *logging.Logger,
) (*model.Series, error) {
	seasons, err := withRetryResult(ctx, rp, func() ([]model.Season, error) {
		return client.Seasons(ctx, seriesID, policy)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch seasons: %w", err)
	}
	logger.Infof("Fetched %d seasons for %s", len(seasons), seriesID)

	for i := range seasons {
		season := &seasons[i]
		episodes, err := withRetryResult(ctx, rp, func() ([]model.Episode, error) {
			return client.Episodes(ctx, season.ID, policy)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch episodes for season %q: %w", season.Title, err)
		}
		season.Episodes = episodes
		logger.Infof("[%s] Found %d episodes", season.Title, len(episodes))
	}

	return &model.Series{ID: seriesID, Seasons: seasons}, nil
}

func writeCatalog(w io.Writer, series *model.Series) {
	fmt.Fprintf(w, "(%s) Contains %d season(s)\n", series.ID, len(series.Seasons))
	for i, season := range series.Seasons {
		fmt.Fprintf(w, "    %s (%s) %q\n", prompt.FormatIndex(i, len(series.Seasons)), season.ID, season.Title)
		for j, episode := range season.Episodes {
			fmt.Fprintf(w, "        %s (%s) %q\n", prompt.FormatIndex(j, len(season.Episodes)), episode.ID, episode.Title)
		}
	}
}
