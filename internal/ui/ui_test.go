package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfplay/internal/player"
	"github.com/desertthunder/shelfplay/internal/shared"
	tu "github.com/desertthunder/shelfplay/internal/testing"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSessionExpiry(t *testing.T) {
	t.Run("Stale Token On Book Fetch Returns To Login", func(t *testing.T) {
		cleared := 0
		m := NewModel(context.Background(), Deps{
			Library:       &tu.MockLibrary{},
			Authenticated: true,
			Logout:        func() error { cleared++; return nil },
		})

		next, cmd := m.Update(booksFetchedMsg{err: fmt.Errorf("library listing: %w", shared.ErrTokenExpired)})
		model := next.(*Model)

		if model.view != LoginView {
			t.Errorf("expected login view after expired token, got %d", model.view)
		}
		if cleared != 1 {
			t.Errorf("expected token cleared once, got %d", cleared)
		}
		if cmd == nil {
			t.Error("expected a focus command for the login form")
		}
		if !strings.Contains(model.View(), "session expired") {
			t.Errorf("expected session-expired notice, got %q", model.View())
		}
	})

	t.Run("Stale Token On Chapter Fetch Returns To Login", func(t *testing.T) {
		cleared := 0
		m := NewModel(context.Background(), Deps{
			Library:       &tu.MockLibrary{},
			Authenticated: true,
			Logout:        func() error { cleared++; return nil },
		})

		next, _ := m.Update(chaptersFetchedMsg{err: fmt.Errorf("chapter listing: %w", shared.ErrTokenExpired)})
		model := next.(*Model)

		if model.view != LoginView {
			t.Errorf("expected login view after expired token, got %d", model.view)
		}
		if cleared != 1 {
			t.Errorf("expected token cleared once, got %d", cleared)
		}
	})

	t.Run("Other Fetch Failures Quit With The Error", func(t *testing.T) {
		m := NewModel(context.Background(), Deps{
			Library:       &tu.MockLibrary{},
			Authenticated: true,
		})

		next, _ := m.Update(booksFetchedMsg{err: fmt.Errorf("backend down")})
		model := next.(*Model)

		if model.err == nil {
			t.Error("expected a non-auth failure to surface as a model error")
		}
		if model.view == LoginView {
			t.Error("expected a non-auth failure to stay out of the login view")
		}
	})
}

func TestAffordancePrompt(t *testing.T) {
	promptModel := func(affordance player.Affordance) *Model {
		m := NewModel(context.Background(), Deps{
			Library:       &tu.MockLibrary{},
			Authenticated: true,
		})
		m.view = PlayerView
		m.prompting = true
		m.affordance = affordance
		m.target = 120
		return m
	}

	t.Run("Start Over Key Ignored While Resume Offered", func(t *testing.T) {
		m := promptModel(player.AffordanceResume)

		next, cmd := m.Update(keyMsg("s"))
		model := next.(*Model)

		if !model.prompting {
			t.Error("expected prompt to stay up")
		}
		if cmd != nil {
			t.Error("expected no command from the unoffered key")
		}
	})

	t.Run("Resume Key Ignored While Start Over Offered", func(t *testing.T) {
		m := promptModel(player.AffordanceStartOver)

		next, cmd := m.Update(keyMsg("r"))
		model := next.(*Model)

		if !model.prompting {
			t.Error("expected prompt to stay up")
		}
		if cmd != nil {
			t.Error("expected no command from the unoffered key")
		}
	})

	t.Run("Resume Key Accepts Resume Affordance", func(t *testing.T) {
		m := promptModel(player.AffordanceResume)

		next, cmd := m.Update(keyMsg("r"))
		model := next.(*Model)

		if model.prompting {
			t.Error("expected prompt dismissed")
		}
		if cmd == nil {
			t.Error("expected a resume command")
		}
	})

	t.Run("Start Over Key Accepts Start Over Affordance", func(t *testing.T) {
		m := promptModel(player.AffordanceStartOver)

		next, cmd := m.Update(keyMsg("s"))
		model := next.(*Model)

		if model.prompting {
			t.Error("expected prompt dismissed")
		}
		if cmd == nil {
			t.Error("expected a start-over command")
		}
	})
}
