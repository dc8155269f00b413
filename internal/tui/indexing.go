package tui

import (
	"context"
	"fmt"

	"askpdf/internal/rag"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type indexingModel struct {
	spinner  spinner.Model
	filename string
	done     bool
	stats    *rag.IndexStats
	err      error
}

func newIndexingModel(filename string) indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle
	return indexingModel{
		spinner:  sp,
		filename: filename,
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *rag.IndexStats
	err   error
}

func runIndex(cfg Config, documentID string) tea.Cmd {
	return func() tea.Msg {
		stats, err := cfg.Pipeline.Index(context.Background(), documentID, cfg.ChunkSize, cfg.Overlap)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += brandStyle.Render("  Indexing") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += mutedStyle.Render("  Press q to quit.") + "\n"
			return s
		}
		s += okStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Chunks: %d (dimension %d)\n", m.stats.NumChunks, m.stats.Dimension)
			s += fmt.Sprintf("  Embedding model: %s\n", m.stats.EmbeddingModel)
		}
		s += "\n"
		s += mutedStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s Embedding %s...\n", m.spinner.View(), m.filename)
	s += "\n"
	s += mutedStyle.Render("  This may take a while for large documents...") + "\n"
	return s
}
