package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yafyz/vrv-player/internal/api"
	"github.com/yafyz/vrv-player/internal/config"
	"github.com/yafyz/vrv-player/internal/download"
	"github.com/yafyz/vrv-player/internal/logging"
	"github.com/yafyz/vrv-player/internal/model"
	"github.com/yafyz/vrv-player/internal/player"
	"github.com/yafyz/vrv-player/internal/prompt"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	logger := logging.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger) int {
	proxy, err := config.LoadProxy(cfg.ConfigPath)
	if err != nil {
		logger.Errorf("load proxy config: %v", err)
		return 1
	}
	transport, err := api.ProxyTransport(proxy)
	if err != nil {
		logger.Errorf("configure proxy: %v", err)
		return 1
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	proxyClient := &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport}
	apiClient := api.New(httpClient, proxyClient, cfg.SiteURL, cfg.APIURL)

	kind := player.VLC
	if cfg.UseMPV {
		kind = player.MPV
		logger.Infof("Using mpv")
	}
	dispatcher, err := player.New(player.Options{
		Kind:     kind,
		Path:     cfg.PlayerPath(),
		AutoExit: cfg.AutoExit,
		Logger:   logger,
	}, download.New(httpClient), nil)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	if err := dispatcher.Check(ctx); err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	prompter := prompt.New(os.Stdin, os.Stdout)

	arg := cfg.Series
	if arg == "" {
		arg, err = prompter.Input("Series ID/VRV Url", "GR75Q7XKR or https://vrv.co/series/GR75Q7XKR/...")
		if err != nil {
			return quitCode(logger, err)
		}
	}
	seriesID := seriesIDFromArg(arg)
	if seriesID == "" {
		logger.Errorf("no series id given")
		return 1
	}

	rp := retryPolicy{
		Attempts: cfg.Retries,
		Delay:    cfg.RetryDelay,
		OnError: func(attempt int, err error) {
			logger.Warnf("Attempt %d/%d failed: %v", attempt, cfg.Retries, err)
		},
	}

	var (
		policy model.SigningPolicy
		held   heldWarnings
	)
	spinnerRP := rp
	spinnerRP.OnError = held.onError(cfg.Retries)
	started := time.Now()
	err = prompter.Run(ctx, "Getting VRV policy data, this might take a while...", func(ctx context.Context) error {
		var fetchErr error
		policy, fetchErr = fetchSigningPolicy(ctx, apiClient, seriesID, spinnerRP)
		return fetchErr
	})
	held.flush(logger)
	if err != nil {
		logger.Errorf("get signing policy: %v", err)
		return 1
	}
	logger.Infof("Signing policy acquired in %s", time.Since(started).Round(time.Millisecond))

	series, err := loadSeries(ctx, apiClient, seriesID, policy, rp, logger)
	if err != nil {
		logger.Errorf("load series %s: %v", seriesID, err)
		return 1
	}
	if len(series.Seasons) == 0 {
		logger.Warnf("Series %s has no seasons; exiting", seriesID)
		return 0
	}
	writeCatalog(os.Stdout, series)

	s := &session{
		series:  series,
		policy:  policy,
		api:     apiClient,
		player:  dispatcher,
		prompt:  prompter,
		logger:  logger,
		subLang: cfg.SubLang,
		retry:   rp,
	}
	if err := s.run(ctx); err != nil {
		return quitCode(logger, err)
	}
	return 0
}

func quitCode(logger *logging.Logger, err error) int {
	if errors.Is(err, prompt.ErrQuit) || errors.Is(err, context.Canceled) {
		return 0
	}
	logger.Errorf("%v", err)
	return 1
}

// retryPolicy bounds attempts with a linear backoff of attempt*Delay.
type retryPolicy struct {
	Attempts int
	Delay    time.Duration
	OnError  func(attempt int, err error)
}

func withRetryResult[T any](ctx context.Context, rp retryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	attempts := rp.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		value, callErr := fn()
		if callErr == nil {
			return value, nil
		}
		err = callErr
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if rp.OnError != nil {
			rp.OnError(i, err)
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(i) * rp.Delay):
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
