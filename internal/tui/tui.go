// Package tui implements the interactive terminal client. It lets the
// user pick an uploaded document, build its index when missing, and
// chat against it.
package tui

import (
	"askpdf/internal/rag"
	"askpdf/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewPicker ViewState = iota
	ViewIndexing
	ViewChat
)

// Config holds configuration passed from the CLI layer.
type Config struct {
	Store    store.Store
	Pipeline *rag.Pipeline

	ChunkSize   int
	Overlap     int
	TopK        int
	Temperature float64
	MaxTokens   int
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	picker   pickerModel
	indexing indexingModel
	chat     chatModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewPicker,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return loadDocuments(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewPicker:
		m.picker, cmd = m.picker.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter to transition.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.picker.loaded {
			entry := m.picker.selected()
			if entry == nil {
				return m, nil
			}
			if entry.indexed {
				m.transitionToChat(entry.doc.ID, entry.doc.Filename)
				return m, nil
			}
			m.state = ViewIndexing
			m.indexing = newIndexingModel(entry.doc.Filename)
			return m, tea.Batch(m.indexing.spinner.Tick, runIndex(m.config, entry.doc.ID))
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter after indexing completes.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.done && m.indexing.err == nil {
			entry := m.picker.selected()
			if entry == nil {
				return m, nil
			}
			m.transitionToChat(entry.doc.ID, entry.doc.Filename)
			return m, nil
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToChat(documentID, filename string) {
	m.chat = newChatModel(m.config.Pipeline, documentID, filename, m.config)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat
}

func (m Model) View() string {
	if m.err != nil {
		return errStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewPicker:
		return m.picker.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
