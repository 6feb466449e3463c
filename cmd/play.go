package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/shelfplay/internal/player"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play runs headless playback for one resource: resolve, honor saved
// progress, play to the end or until interrupted, then record the session.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command, kind string) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: resource id", shared.ErrMissingArgument)
	}

	resourceKind, err := services.ParseResourceKind(kind)
	if err != nil {
		return err
	}
	ref := services.ResourceRef{Kind: resourceKind, ID: id}

	title := cmd.String("title")
	if title == "" {
		title = ref.String()
	}

	p, reconciler, err := r.buildPlayer(ref, title)
	if err != nil {
		return err
	}
	defer func() {
		session := p.SessionRecord()
		if err := p.Close(); err != nil {
			r.logger.Warn("player close failed", "err", err)
		}
		if session.Listened() > 0 || session.Completed {
			if repo, db, err := r.history(); err == nil {
				defer db.Close()
				if err := repo.Create(session); err != nil {
					r.logger.Warn("failed to record listening session", "err", err)
				}
			}
		}
		r.dumpTelemetry()
	}()

	if speed := cmd.Float("speed"); speed != 0 {
		if err := p.SetRate(speed); err != nil {
			return fmt.Errorf("%w: --speed %v", shared.ErrInvalidArgument, speed)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	affordance, target := player.AffordanceNone, 0.0
	if !cmd.Bool("fresh") {
		affordance, target, err = reconciler.Fetch(ctx)
		if err != nil {
			// Unreachable progress never blocks playback.
			r.logger.Warn("progress fetch failed", "err", err)
			affordance, target = player.AffordanceNone, 0
		}
	}

	if affordance == player.AffordanceResume {
		r.writePlain("Resuming %s from %s\n", title, shared.FormatDuration(target))
		err = p.Resume(ctx, target)
	} else {
		r.writePlain("Playing %s\n", title)
		err = p.StartOver(ctx)
	}
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := p.Pause(); err != nil {
				r.logger.Warn("pause on interrupt failed", "err", err)
			}
			r.writePlain("\nStopped at %s\n", shared.FormatDuration(p.State().Position))
			return nil

		case ev, ok := <-p.Events():
			if !ok {
				return nil
			}

			switch ev.State.Status {
			case player.StatusEnded:
				r.writePlain("\n✓ Finished %s\n", title)
				return nil
			case player.StatusErrored:
				return fmt.Errorf("%w: %s", shared.ErrMediaUnavailable, ev.State.Message)
			case player.StatusPlaying:
				r.writePlain("\r%s / %s  ",
					shared.FormatDuration(ev.State.Position),
					shared.FormatDuration(ev.State.Duration),
				)
			}
		}
	}
}
