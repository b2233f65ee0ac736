package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yafyz/vrv-player/internal/logging"
	"github.com/yafyz/vrv-player/internal/model"
)

func TestSeriesIDFromArg(t *testing.T) {
	cases := map[string]string{
		"GR75Q7XKR":                                   "GR75Q7XKR",
		"  GR75Q7XKR  ":                               "GR75Q7XKR",
		"https://vrv.co/series/GR75Q7XKR/Some-Show":   "GR75Q7XKR",
		"https://vrv.co/series/GR75Q7XKR?utm=x":       "GR75Q7XKR",
		"vrv.co/series/G6NQ5DWZ6":                     "G6NQ5DWZ6",
		"https://vrv.co/watch/GR3VWXP96/Episode-Name": "https://vrv.co/watch/GR3VWXP96/Episode-Name",
	}
	for in, want := range cases {
		if got := seriesIDFromArg(in); got != want {
			t.Fatalf("seriesIDFromArg(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadSeriesFetchesSeasonsThenEpisodes(t *testing.T) {
	catalog := &fakeCatalog{
		seasons: []model.Season{
			{ID: "a", Title: "Season 1"},
			{ID: "b", Title: "Season 2"},
		},
		episodes: map[string][]model.Episode{
			"a": {{ID: "a1", Title: "One", PlaybackURL: "https://api/play/a1"}},
			"b": {{ID: "b1", Title: "Two", PlaybackURL: "https://api/play/b1"}, {ID: "b2", Title: "Three", PlaybackURL: "https://api/play/b2"}},
		},
		failures: 1,
	}

	var logs bytes.Buffer
	series, err := loadSeries(context.Background(), catalog, "S1", testPolicy, fastRetry(2), logging.NewWithWriter(&logs, "test"))
	if err != nil {
		t.Fatalf("loadSeries failed: %v", err)
	}
	if series.ID != "S1" || len(series.Seasons) != 2 {
		t.Fatalf("unexpected series: %+v", series)
	}
	if len(series.Seasons[0].Episodes) != 1 || len(series.Seasons[1].Episodes) != 2 {
		t.Fatalf("episodes not attached to seasons: %+v", series.Seasons)
	}
}

func TestLoadSeriesGivesUp(t *testing.T) {
	catalog := &fakeCatalog{failures: 5}

	var logs bytes.Buffer
	_, err := loadSeries(context.Background(), catalog, "S1", testPolicy, fastRetry(2), logging.NewWithWriter(&logs, "test"))
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if catalog.failures != 3 {
		t.Fatalf("expected exactly 2 attempts, %d failures left", catalog.failures)
	}
}

func TestWriteCatalog(t *testing.T) {
	series := testSeries()
	var out bytes.Buffer
	writeCatalog(&out, series)

	want := "(S1) Contains 1 season(s)\n" +
		"    0 (season-1) \"Season 1\"\n" +
		"        0 (e0) \"Pilot\"\n" +
		"        1 (e1) \"Second\"\n"
	if out.String() != want {
		t.Fatalf("unexpected listing:\n%s", out.String())
	}
}

func TestHeldWarningsFlushAfterSpinner(t *testing.T) {
	var held heldWarnings
	rp := fastRetry(3)
	rp.OnError = held.onError(rp.Attempts)

	var logs bytes.Buffer
	logger := logging.NewWithWriter(&logs, "test")

	calls := 0
	_, err := withRetryResult(context.Background(), rp, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("signature rejected")
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("withRetryResult failed: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("warnings should be held until flush, got %q", logs.String())
	}

	held.flush(logger)
	out := logs.String()
	if !strings.Contains(out, "Attempt 1/3 failed: signature rejected") ||
		!strings.Contains(out, "Attempt 2/3 failed: signature rejected") {
		t.Fatalf("unexpected flushed warnings: %q", out)
	}
	if strings.Index(out, "Attempt 1/3") > strings.Index(out, "Attempt 2/3") {
		t.Fatalf("warnings flushed out of order: %q", out)
	}

	logs.Reset()
	held.flush(logger)
	if logs.Len() != 0 {
		t.Fatalf("second flush should be empty, got %q", logs.String())
	}
}
