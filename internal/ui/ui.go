package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/player"
	"github.com/desertthunder/shelfplay/internal/repositories"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	BookListView
	ChapterListView
	PlayerView
)

// Deps carries the TUI's injected dependencies. NewPlayer constructs the
// playback stack for one resource so the model never touches the media
// primitive directly.
type Deps struct {
	Library       services.Library
	Authenticated bool
	Login         func(ctx context.Context, email, password string) (services.Library, error)
	Logout        func() error
	NewPlayer     func(ref services.ResourceRef, title string) (*player.Player, *player.Reconciler, error)
	History       *repositories.ListeningSessionRepository
	Logger        *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	width  int
	height int

	email      textinput.Model
	password   textinput.Model
	focusIndex int
	loginErr   error

	bookList     list.Model
	books        []models.Book
	chapterList  list.Model
	selectedBook *models.Book

	player      *player.Player
	reconciler  *player.Reconciler
	affordance  player.Affordance
	target      float64
	prompting   bool
	playerTitle string
	state       player.State
	bar         progress.Model

	err    error
	help   help.Model
	keys   keyMap
	logger *log.Logger
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}

	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	view := LoginView
	if deps.Authenticated {
		view = BookListView
	}

	return &Model{
		ctx:      ctx,
		deps:     deps,
		view:     view,
		email:    email,
		password: password,
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
		logger:   deps.Logger,
	}
}

// Init fetches the library listing, or starts the login form's cursor blink
// when not yet authenticated.
func (m *Model) Init() tea.Cmd {
	if m.view == BookListView {
		return m.fetchBooks()
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.bookList.Width() == 0 {
			m.bookList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.chapterList.Width() == 0 {
			m.chapterList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case BookListView:
			return m.handleBookListKeys(msg)
		case ChapterListView:
			return m.handleChapterListKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		}

	case loginDoneMsg:
		if msg.err != nil {
			m.loginErr = msg.err
			return m, nil
		}
		m.deps.Library = msg.library
		m.loginErr = nil
		m.view = BookListView
		return m, m.fetchBooks()

	case booksFetchedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, shared.ErrTokenExpired) {
				return m.expireSession()
			}
			m.err = msg.err
			return m, tea.Quit
		}
		m.books = msg.books
		items := make([]list.Item, len(msg.books))
		for i, book := range msg.books {
			items[i] = bookItem{book: book}
		}
		m.bookList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.bookList.Title = "Library"
		m.bookList.SetSize(m.width-4, m.height-8)
		return m, nil

	case chaptersFetchedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, shared.ErrTokenExpired) {
				return m.expireSession()
			}
			m.err = msg.err
			m.view = BookListView
			return m, nil
		}
		book := msg.book
		m.selectedBook = &book
		items := make([]list.Item, len(msg.chapters))
		for i, chapter := range msg.chapters {
			items[i] = chapterItem{chapter: chapter}
		}
		m.chapterList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.chapterList.Title = fmt.Sprintf("Chapters in '%s'", book.Title)
		m.chapterList.SetSize(m.width-4, m.height-8)
		m.view = ChapterListView
		return m, nil

	case playerReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.player = msg.player
		m.reconciler = msg.reconciler
		m.affordance = msg.affordance
		m.target = msg.target
		m.state = msg.player.State()
		m.err = nil
		m.view = PlayerView

		if msg.affordance == player.AffordanceNone {
			m.prompting = false
			return m, tea.Batch(m.startOver(), m.listenPlayer())
		}
		m.prompting = true
		return m, m.listenPlayer()

	case playerEventMsg:
		m.state = msg.State
		return m, m.listenPlayer()

	case playerClosedMsg:
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != PlayerView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoginView:
		return m.renderLogin()
	case BookListView:
		return m.renderBookList()
	case ChapterListView:
		return m.renderChapterList()
	case PlayerView:
		return m.renderPlayer()
	default:
		return ""
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.focusIndex = (m.focusIndex + 1) % 2
		if m.focusIndex == 0 {
			m.password.Blur()
			return m, m.email.Focus()
		}
		m.email.Blur()
		return m, m.password.Focus()
	case "enter":
		if m.focusIndex == 0 {
			m.focusIndex = 1
			m.email.Blur()
			return m, m.password.Focus()
		}
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleBookListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if book, ok := m.selectedBookItem(); ok {
			return m, m.fetchChapters(book)
		}
	case "p":
		if book, ok := m.selectedBookItem(); ok && book.HasIntro {
			ref := services.ResourceRef{Kind: services.KindBookIntro, ID: book.ID}
			return m, m.openPlayer(ref, book.Title)
		}
	}

	var cmd tea.Cmd
	m.bookList, cmd = m.bookList.Update(msg)
	return m, cmd
}

func (m *Model) selectedBookItem() (models.Book, bool) {
	selected := m.bookList.SelectedItem()
	if selected == nil {
		return models.Book{}, false
	}
	item, ok := selected.(bookItem)
	return item.book, ok
}

func (m *Model) handleChapterListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = BookListView
		return m, nil
	case "enter":
		selected := m.chapterList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(chapterItem); ok {
				ref := services.ResourceRef{Kind: services.KindChapter, ID: item.chapter.ID}
				return m, m.openPlayer(ref, item.Title())
			}
		}
	}

	var cmd tea.Cmd
	m.chapterList, cmd = m.chapterList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompting {
		// Exactly one affordance is offered; only its key does anything.
		switch {
		case key.Matches(msg, m.keys.resume):
			if m.affordance == player.AffordanceResume {
				m.prompting = false
				return m, m.resume()
			}
		case key.Matches(msg, m.keys.startOver):
			if m.affordance == player.AffordanceStartOver {
				m.prompting = false
				return m, m.startOver()
			}
		case key.Matches(msg, m.keys.back):
			m.closePlayer()
			m.view = ChapterListView
			return m, nil
		case key.Matches(msg, m.keys.quit):
			m.closePlayer()
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.closePlayer()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closePlayer()
		if m.selectedBook != nil {
			m.view = ChapterListView
		} else {
			m.view = BookListView
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		m.playerOp(m.player.Toggle)
	case key.Matches(msg, m.keys.skipBack):
		m.playerOp(m.player.SkipBackward)
	case key.Matches(msg, m.keys.skipAhead):
		m.playerOp(m.player.SkipForward)
	case key.Matches(msg, m.keys.volumeUp):
		m.playerOp(func() error { return m.player.SetVolume(m.state.Volume + 0.1) })
	case key.Matches(msg, m.keys.volumeDn):
		m.playerOp(func() error { return m.player.SetVolume(m.state.Volume - 0.1) })
	case key.Matches(msg, m.keys.rate):
		m.playerOp(m.player.CycleRate)
	case key.Matches(msg, m.keys.bookmark):
		m.player.Bookmark()
	}

	return m, nil
}

// expireSession clears the stored token and drops back to the login form.
// A stale token means every authenticated call will fail the same way, so
// the only recovery is a fresh sign-in.
func (m *Model) expireSession() (tea.Model, tea.Cmd) {
	if m.deps.Logout != nil {
		if err := m.deps.Logout(); err != nil {
			m.logger.Warn("failed to clear expired token", "err", err)
		}
	}
	m.err = nil
	m.loginErr = shared.ErrTokenExpired
	m.view = LoginView
	m.focusIndex = 0
	m.password.Blur()
	return m, m.email.Focus()
}

// playerOp runs a player operation and logs a rejected one. Failures surface
// through the player's own state stream, not as model errors.
func (m *Model) playerOp(op func() error) {
	if m.player == nil {
		return
	}
	if err := op(); err != nil {
		m.logger.Warn("player operation rejected", "err", err)
	}
}

// closePlayer tears down the active player and records the session in the
// history cache.
func (m *Model) closePlayer() {
	if m.player == nil {
		return
	}

	session := m.player.SessionRecord()
	if err := m.player.Close(); err != nil {
		m.logger.Warn("player close failed", "err", err)
	}

	if m.deps.History != nil && (session.Listened() > 0 || session.Completed) {
		if err := m.deps.History.Create(session); err != nil {
			m.logger.Warn("failed to record listening session", "err", err)
		}
	}

	m.player = nil
	m.reconciler = nil
	m.prompting = false
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BookListView:
		m.bookList, cmd = m.bookList.Update(msg)
	case ChapterListView:
		m.chapterList, cmd = m.chapterList.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitLogin() tea.Cmd {
	email := m.email.Value()
	password := m.password.Value()

	return func() tea.Msg {
		if email == "" || password == "" {
			return loginDoneMsg{err: fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)}
		}
		library, err := m.deps.Login(m.ctx, email, password)
		return loginDoneMsg{library: library, err: err}
	}
}

func (m *Model) fetchBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := m.deps.Library.Books(m.ctx)
		return booksFetchedMsg{books: books, err: err}
	}
}

func (m *Model) fetchChapters(book models.Book) tea.Cmd {
	return func() tea.Msg {
		chapters, err := m.deps.Library.Chapters(m.ctx, book.ID)
		return chaptersFetchedMsg{book: book, chapters: chapters, err: err}
	}
}

// openPlayer builds the playback stack for the resource and fetches the saved
// progress so the view can offer its single affordance.
func (m *Model) openPlayer(ref services.ResourceRef, title string) tea.Cmd {
	m.playerTitle = title

	return func() tea.Msg {
		p, reconciler, err := m.deps.NewPlayer(ref, title)
		if err != nil {
			return playerReadyMsg{err: err}
		}

		affordance, target, err := reconciler.Fetch(m.ctx)
		if err != nil {
			// Unreachable progress never blocks playback.
			m.logger.Warn("progress fetch failed", "err", err)
			affordance, target = player.AffordanceNone, 0
		}

		return playerReadyMsg{player: p, reconciler: reconciler, affordance: affordance, target: target}
	}
}

func (m *Model) resume() tea.Cmd {
	target := m.target
	return func() tea.Msg {
		if err := m.player.Resume(m.ctx, target); err != nil {
			m.logger.Error("resume failed", "err", err)
		}
		return nil
	}
}

func (m *Model) startOver() tea.Cmd {
	return func() tea.Msg {
		if err := m.player.StartOver(m.ctx); err != nil {
			m.logger.Error("start over failed", "err", err)
		}
		return nil
	}
}

// listenPlayer waits for the next state snapshot from the player.
func (m *Model) listenPlayer() tea.Cmd {
	events := m.player.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return playerClosedMsg{}
		}
		return playerEventMsg(ev)
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in to your library")

	form := fmt.Sprintf("%s\n%s", m.email.View(), m.password.View())

	status := ""
	if m.loginErr != nil {
		text := "Login failed. Check your email and password."
		if errors.Is(m.loginErr, shared.ErrTokenExpired) {
			text = "Your session expired. Sign in again."
		}
		status = "\n" + styles.err.Render(text)
	}

	helpView := styles.help.Render("tab: switch field • enter: submit • ctrl+c: quit")
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, form, status, helpView)
}

func (m *Model) renderBookList() string {
	playKey := key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play intro"))
	helpKeys := []key.Binding{m.keys.enter, playKey, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.bookList.View(), helpView)
}

func (m *Model) renderChapterList() string {
	playKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
	helpKeys := []key.Binding{playKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.chapterList.View(), helpView)
}

func (m *Model) renderPlayer() string {
	title := styles.title.Render(m.playerTitle)

	if m.prompting {
		var prompt string
		switch m.affordance {
		case player.AffordanceResume:
			prompt = fmt.Sprintf("Resume from %s? (r) resume  (esc) back", shared.FormatDuration(m.target))
		case player.AffordanceStartOver:
			prompt = "You finished this one. (s) start over  (esc) back"
		}
		return fmt.Sprintf("%s\n%s\n\n%s", title, prompt, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}

	var percent float64
	if m.state.Duration > 0 {
		percent = m.state.Position / m.state.Duration
	}

	timeline := fmt.Sprintf("%s / %s",
		shared.FormatDuration(m.state.Position),
		shared.FormatDuration(m.state.Duration),
	)

	statusLine := m.state.Status.String()
	switch m.state.Status {
	case player.StatusPlaying:
		statusLine = styles.ok.Render("▶ playing")
	case player.StatusPaused:
		statusLine = styles.warn.Render("⏸ paused")
	case player.StatusEnded:
		statusLine = styles.ok.Render("✓ finished")
	case player.StatusErrored:
		statusLine = styles.err.Render(m.state.Message)
	}

	settings := styles.help.Render(fmt.Sprintf("volume %.0f%% • speed %.2gx", m.state.Volume*100, m.state.Rate))

	helpKeys := []key.Binding{m.keys.toggle, m.keys.skipBack, m.keys.skipAhead, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s\n\n%s",
		title, statusLine, m.bar.ViewAs(percent), timeline, settings, helpView)
}
