package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
)

var (
	_ list.Item = bookItem{}
	_ list.Item = chapterItem{}
)

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	desc := i.book.Author
	if i.book.ChapterCount > 0 {
		desc = fmt.Sprintf("%s • %d chapters", desc, i.book.ChapterCount)
	}
	if i.book.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.book.Duration))
	}
	return desc
}

// chapterItem wraps [models.Chapter] to implement [list.Item].
type chapterItem struct {
	chapter models.Chapter
}

func (i chapterItem) FilterValue() string { return i.chapter.Title }
func (i chapterItem) Title() string {
	if i.chapter.Title != "" {
		return fmt.Sprintf("%d. %s", i.chapter.Number, i.chapter.Title)
	}
	return fmt.Sprintf("Chapter %d", i.chapter.Number)
}
func (i chapterItem) Description() string {
	return shared.FormatDuration(i.chapter.Duration)
}
