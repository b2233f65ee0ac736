package main

import (
	"context"
	"fmt"

	"github.com/yafyz/vrv-player/internal/logging"
	"github.com/yafyz/vrv-player/internal/model"
	"github.com/yafyz/vrv-player/internal/player"
	"github.com/yafyz/vrv-player/internal/prompt"
)

type streamPlayer interface {
	Play(ctx context.Context, req player.Request) error
}

// session is the interactive season/episode loop over a loaded series.
type session struct {
	series  *model.Series
	policy  model.SigningPolicy
	api     catalogAPI
	player  streamPlayer
	prompt  prompt.Prompter
	logger  *logging.Logger
	subLang string
	retry   retryPolicy
}

// run loops until the user quits. Playback failures are logged and the loop continues.
func (s *session) run(ctx context.Context) error {
	seasonLabels := make([]string, len(s.series.Seasons))
	for i, season := range s.series.Seasons {
		seasonLabels[i] = fmt.Sprintf("%s (%d episodes)", season.Title, len(season.Episodes))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		lang, err := s.prompt.Input(fmt.Sprintf("Subtitle language (currently: %s)", s.subLang), s.subLang)
		if err != nil {
			return err
		}
		if lang != "" && lang != s.subLang {
			s.subLang = lang
			s.logger.Infof("Subtitle language set to: %s", s.subLang)
		}

		seasonIdx, err := s.prompt.Select("Season index", seasonLabels, "Quit")
		if err != nil {
			return err
		}
		if seasonIdx == prompt.Back {
			return nil
		}

		if err := s.episodeLoop(ctx, &s.series.Seasons[seasonIdx]); err != nil {
			return err
		}
	}
}

func (s *session) episodeLoop(ctx context.Context, season *model.Season) error {
	labels := make([]string, len(season.Episodes))
	for i, ep := range season.Episodes {
		labels[i] = ep.Title
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx, err := s.prompt.Select(fmt.Sprintf("%s: episode index", season.Title), labels, "Back")
		if err != nil {
			return err
		}
		if idx == prompt.Back {
			return nil
		}

		if err := s.play(ctx, season, idx); err != nil {
			// A killed player reports its exit status, not the context error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warnf("Playback of %q failed: %v", season.Episodes[idx].Title, err)
		}
	}
}

func (s *session) play(ctx context.Context, season *model.Season, idx int) error {
	episode := &season.Episodes[idx]

	if episode.PlaybackInfo == nil {
		info, err := withRetryResult(ctx, s.retry, func() (*model.PlaybackInfo, error) {
			return s.api.Playback(ctx, episode.PlaybackURL, s.policy)
		})
		if err != nil {
			return fmt.Errorf("load playback info: %w", err)
		}
		episode.PlaybackInfo = info
	}

	stream, err := episode.PlaybackInfo.DefaultStream()
	if err != nil {
		return err
	}
	subURL, ok := episode.PlaybackInfo.SubtitleURL(s.subLang)
	if !ok {
		s.logger.Infof("No %s subtitles for %q", s.subLang, episode.Title)
	}

	title := fmt.Sprintf("%s - %d. %s", season.Title, idx, episode.Title)
	s.logger.Infof("Playing %s", title)
	return s.player.Play(ctx, player.Request{
		StreamURL:   stream.URL,
		SubtitleURL: subURL,
		Title:       title,
	})
}
