package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfplay/internal/formatter"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent listening sessions from the local cache.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.history()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = int(limit)
	}

	sessions, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, len(sessions))
		for i, session := range sessions {
			rows[i] = map[string]any{
				"id":             session.ID(),
				"resource_kind":  session.ResourceKind,
				"resource_id":    session.ResourceID,
				"title":          session.Title,
				"start_position": session.StartPosition,
				"end_position":   session.EndPosition,
				"listened":       session.Listened(),
				"playback_speed": session.PlaybackSpeed,
				"completed":      session.Completed,
				"started_at":     session.StartedAt,
				"ended_at":       session.EndedAt,
			}
		}
		return r.writeJSON(rows, true)
	}

	if len(sessions) == 0 {
		return r.writePlain("No listening history yet\n")
	}

	for _, session := range sessions {
		marker := " "
		if session.Completed {
			marker = "✓"
		}
		title := session.Title
		if title == "" {
			title = session.ResourceKind + "/" + session.ResourceID
		}
		r.writePlain("%s %s  %s listened  %s\n",
			marker,
			title,
			shared.FormatDuration(session.Listened()),
			session.StartedAt.Format("2006-01-02 15:04"),
		)
	}

	total, err := repo.TotalListened()
	if err == nil {
		r.writePlain("\nTotal: %s across %d sessions\n", shared.FormatDuration(total), len(sessions))
	}

	return nil
}

// HistoryExport writes the listening history to a file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.history()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := repo.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	result, err := formatter.WriteExport(sessions, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}

	return r.writePlain("✓ Exported %d sessions to %s (%s)\n", len(sessions), result.File, result.Format)
}

// HistoryClear deletes all cached listening sessions.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.history()
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := repo.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return r.writePlain("✓ Removed %d sessions\n", removed)
}
