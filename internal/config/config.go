package config

import (
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"
)

const defaultWindowsVLC = `C:\Program Files (x86)\VideoLAN\VLC\vlc.exe`

// Config contains runtime options for the player.
type Config struct {
	Series      string
	UseMPV      bool
	ConfigPath  string
	SubLang     string
	Retries     int
	RetryDelay  time.Duration
	HTTPTimeout time.Duration
	VLCPath     string
	MPVPath     string
	AutoExit    bool
	SiteURL     string
	APIURL      string
}

// Parse reads CLI flags into Config. The first positional argument is the series id or URL.
func Parse(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("vrv-player", flag.ContinueOnError)
	fs.SetOutput(output)

	defaultVLC := "vlc"
	if runtime.GOOS == "windows" {
		defaultVLC = defaultWindowsVLC
	}

	useMPV := fs.Bool("mpv", false, "play with mpv instead of VLC")
	configPath := fs.String("config", "config.yaml", "proxy credential file (YAML or JSON)")
	subLang := fs.String("sub-lang", "en-US", "initial subtitle locale")
	retries := fs.Int("retries", 5, "attempts for signing policy and catalog requests")
	retryDelay := fs.Duration("retry-delay", 400*time.Millisecond, "linear backoff unit between attempts")
	httpTimeout := fs.Duration("http-timeout", time.Minute, "HTTP request timeout")
	vlcPath := fs.String("vlc-path", defaultVLC, "VLC executable")
	mpvPath := fs.String("mpv-path", "mpv", "mpv executable")
	autoExit := fs.Bool("autoexit", true, "quit VLC when playback ends")
	siteURL := fs.String("site-url", "https://vrv.co", "site hosting the watch pages")
	apiURL := fs.String("api-url", "https://api.vrv.co", "API base URL")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("expected at most one series argument, got %d", fs.NArg())
	}

	if *retries < 1 {
		*retries = 1
	}

	return Config{
		Series:      strings.TrimSpace(fs.Arg(0)),
		UseMPV:      *useMPV,
		ConfigPath:  *configPath,
		SubLang:     strings.TrimSpace(*subLang),
		Retries:     *retries,
		RetryDelay:  *retryDelay,
		HTTPTimeout: *httpTimeout,
		VLCPath:     *vlcPath,
		MPVPath:     *mpvPath,
		AutoExit:    *autoExit,
		SiteURL:     strings.TrimRight(*siteURL, "/"),
		APIURL:      strings.TrimRight(*apiURL, "/"),
	}, nil
}

// PlayerPath returns the executable for the selected player.
func (c Config) PlayerPath() string {
	if c.UseMPV {
		return c.MPVPath
	}
	return c.VLCPath
}
