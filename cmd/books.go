package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// BooksList prints the library listing.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	books, err := r.library.Books(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch books: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(books, cmd.Bool("pretty"))
	}

	if len(books) == 0 {
		return r.writePlain("No books in your library\n")
	}

	for _, book := range books {
		line := fmt.Sprintf("%s  %s - %s", book.ID, book.Title, book.Author)
		if book.ChapterCount > 0 {
			line += fmt.Sprintf(" (%d chapters, %s)", book.ChapterCount, shared.FormatDuration(book.Duration))
		}
		r.writePlain("%s\n", line)
	}

	return nil
}

// BooksChapters prints the chapter listing for one book.
func (r *Runner) BooksChapters(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	bookID := cmd.StringArg("id")
	if bookID == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}

	chapters, err := r.library.Chapters(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to fetch chapters: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(chapters, cmd.Bool("pretty"))
	}

	if len(chapters) == 0 {
		return r.writePlain("No chapters found for %s\n", bookID)
	}

	for _, chapter := range chapters {
		r.writePlain("%s  %d. %s [%s]\n", chapter.ID, chapter.Number, chapter.Title, shared.FormatDuration(chapter.Duration))
	}

	return nil
}
