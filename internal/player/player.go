package player

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"github.com/yafyz/vrv-player/internal/download"
	"github.com/yafyz/vrv-player/internal/logging"
)

const stderrTail = 4 << 10

// Kind selects the external player.
type Kind string

const (
	VLC Kind = "vlc"
	MPV Kind = "mpv"
)

// Runner executes an external program and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec, discarding stdout.
type ExecRunner struct{}

// Run starts the program and waits. The last stderr line is attached to the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &tailWriter{max: stderrTail}
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

// Options configures a Dispatcher.
type Options struct {
	Kind     Kind
	Path     string
	AutoExit bool
	// TempDir holds downloaded subtitles. Empty means os.TempDir.
	TempDir string
	// Logger reports subtitle downloads. Optional.
	Logger *logging.Logger
}

// Request is one playback invocation.
type Request struct {
	StreamURL   string
	SubtitleURL string
	Title       string
}

// Dispatcher hands streams to an external player.
type Dispatcher struct {
	opts       Options
	downloader *download.Downloader
	runner     Runner
}

// New creates a Dispatcher. A nil runner uses ExecRunner.
func New(opts Options, downloader *download.Downloader, runner Runner) (*Dispatcher, error) {
	switch opts.Kind {
	case VLC, MPV:
	default:
		return nil, fmt.Errorf("unsupported player type: %s", opts.Kind)
	}
	if opts.Path == "" {
		opts.Path = string(opts.Kind)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Dispatcher{opts: opts, downloader: downloader, runner: runner}, nil
}

// Check verifies the player executable can be started.
func (d *Dispatcher) Check(ctx context.Context) error {
	if err := d.runner.Run(ctx, d.opts.Path, "--version"); err != nil {
		return fmt.Errorf("%s is required but unavailable (%s): %w", d.opts.Kind, d.opts.Path, err)
	}
	return nil
}

// Play downloads the subtitle track, if any, runs the player and waits for it to exit.
// The subtitle file is removed before Play returns.
func (d *Dispatcher) Play(ctx context.Context, req Request) (err error) {
	if req.StreamURL == "" {
		return errors.New("play: empty stream url")
	}

	var subPath string
	if req.SubtitleURL != "" {
		pattern := download.SafeName(req.Title, 48) + "-*" + subtitleExt(req.SubtitleURL)
		res, dlErr := d.downloader.DownloadTemp(ctx, req.SubtitleURL, d.opts.TempDir, pattern)
		if dlErr != nil {
			return fmt.Errorf("download subtitle: %w", dlErr)
		}
		subPath = res.Path
		if d.opts.Logger != nil {
			d.opts.Logger.Infof("Subtitle: %d bytes in %s", res.BytesWritten, res.Duration.Round(time.Millisecond))
		}
		defer func() {
			if rmErr := os.Remove(subPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("remove subtitle file: %w", rmErr))
			}
		}()
	}

	args := Args(d.opts.Kind, req.StreamURL, subPath, req.Title, d.opts.AutoExit)
	if err := d.runner.Run(ctx, d.opts.Path, args...); err != nil {
		return fmt.Errorf("%s: %w", d.opts.Kind, err)
	}
	return nil
}

// Args builds the player command line. Empty subPath or title omit their flags.
func Args(kind Kind, streamURL, subPath, title string, autoExit bool) []string {
	args := []string{streamURL}
	switch kind {
	case MPV:
		if title != "" {
			args = append(args, "--force-media-title="+title)
		}
		if subPath != "" {
			args = append(args, "--sub-file="+subPath)
		}
	default:
		if title != "" {
			args = append(args, "--meta-title", title)
		}
		if subPath != "" {
			args = append(args, "--sub-file", subPath)
		}
		if autoExit {
			args = append(args, "--play-and-exit")
		}
	}
	return args
}

func subtitleExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".ass"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".ass", ".ssa", ".srt", ".vtt":
		return ext
	default:
		return ".ass"
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// tailWriter keeps only the last max bytes written to it.
type tailWriter struct {
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= w.max {
		w.buf = append(w.buf[:0], p[len(p)-w.max:]...)
		return n, nil
	}
	if over := len(w.buf) + len(p) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	w.buf = append(w.buf, p...)
	return n, nil
}

func (w *tailWriter) String() string {
	return string(w.buf)
}
