package tui

import (
	"fmt"

	"askpdf/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type docEntry struct {
	doc     store.DocumentRecord
	indexed bool
}

type pickerModel struct {
	docs   []docEntry
	cursor int
	loaded bool
	err    error
}

// loadDocsMsg is sent after the document list has been read.
type loadDocsMsg struct {
	docs []docEntry
	err  error
}

func loadDocuments(cfg Config) tea.Cmd {
	return func() tea.Msg {
		records, err := cfg.Store.ListDocuments()
		if err != nil {
			return loadDocsMsg{err: err}
		}
		entries := make([]docEntry, 0, len(records))
		for _, rec := range records {
			indexed, err := cfg.Store.HasIndex(rec.ID)
			if err != nil {
				return loadDocsMsg{err: err}
			}
			entries = append(entries, docEntry{doc: rec, indexed: indexed})
		}
		return loadDocsMsg{docs: entries}
	}
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDocsMsg:
		m.docs = msg.docs
		m.err = msg.err
		m.loaded = true

	case tea.KeyMsg:
		if !m.loaded || m.err != nil {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.docs)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m pickerModel) selected() *docEntry {
	if len(m.docs) == 0 || m.cursor >= len(m.docs) {
		return nil
	}
	return &m.docs[m.cursor]
}

func (m pickerModel) View(width, height int) string {
	s := "\n"
	s += brandStyle.Render("  ◆ askpdf") + "\n"
	s += taglineStyle.Render("  Ask questions about your PDF documents") + "\n\n"

	if !m.loaded {
		s += mutedStyle.Render("  Loading documents...") + "\n"
		return s
	}

	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
		return s
	}

	if len(m.docs) == 0 {
		s += pendingStyle.Render("  No documents found.") + "\n"
		s += mutedStyle.Render("  Upload one first: askpdf index <file.pdf>") + "\n\n"
		s += mutedStyle.Render("  Press q to quit.") + "\n"
		return s
	}

	s += taglineStyle.Render("  Select a document") + "\n\n"
	for i, entry := range m.docs {
		cursor := "  "
		style := rowStyle
		if i == m.cursor {
			cursor = "▸ "
			style = cursorStyle
		}
		status := pendingStyle.Render("not indexed")
		if entry.indexed {
			status = okStyle.Render("indexed")
		}
		s += fmt.Sprintf("  %s%s  %s\n", cursor, style.Render(entry.doc.Filename), status)
	}
	s += "\n"
	s += mutedStyle.Render("  ↑/↓ navigate • Enter select • q quit") + "\n"
	return s
}
