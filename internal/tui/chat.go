package tui

import (
	"context"
	"fmt"
	"strings"

	"askpdf/internal/rag"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type chatState int

const (
	chatIdle chatState = iota
	chatThinking
)

type chatModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	messages    []chatMessage
	pipeline    *rag.Pipeline
	documentID  string
	docName     string
	topK        int
	temperature float64
	maxTokens   int
	state       chatState
	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
	sources []rag.Source
}

// answerMsg is sent when a query completes.
type answerMsg struct {
	answer *rag.Answer
	err    error
}

func newChatModel(pipeline *rag.Pipeline, documentID, docName string, cfg Config) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	ti := textinput.New()
	ti.Placeholder = "Ask a question about " + docName + "..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		spinner:     sp,
		input:       ti,
		pipeline:    pipeline,
		documentID:  documentID,
		docName:     docName,
		topK:        cfg.TopK,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		state:       chatIdle,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + borders/gaps (1 line).
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(mutedStyle.Render("Ask a question about " + m.docName + ".\n\nCommands: /help, /clear, /exit"))

	m.input.Width = width - 4

	// Create glamour renderer matched to current width.
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func askQuestion(pipeline *rag.Pipeline, documentID, question string, topK int, temperature float64, maxTokens int) tea.Cmd {
	return func() tea.Msg {
		ans, err := pipeline.Ask(context.Background(), documentID, question, topK, temperature, maxTokens)
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{answer: ans}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case answerMsg:
		m.state = chatIdle
		if msg.err != nil {
			m.messages = append(m.messages, chatMessage{role: "error", content: msg.err.Error()})
		} else {
			m.messages = append(m.messages, chatMessage{
				role:    "assistant",
				content: msg.answer.Answer,
				sources: msg.answer.Sources,
			})
		}
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.state != chatIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			// Re-render viewport so the spinner frame updates.
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.state != chatIdle {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			switch question {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.messages = nil
				m.viewport.SetContent(mutedStyle.Render("Conversation cleared."))
				return m, nil
			case "/help":
				helpText := "Commands:\n  /clear  - clear conversation\n  /exit   - quit\n  /help   - show this help"
				m.messages = append(m.messages, chatMessage{role: "system", content: helpText})
				m.viewport.SetContent(m.renderMessages())
				m.viewport.GotoBottom()
				return m, nil
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.state = chatThinking
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()

			return m, tea.Batch(
				m.spinner.Tick,
				askQuestion(m.pipeline, m.documentID, question, m.topK, m.temperature, m.maxTokens),
			)
		}
	}

	// Update text input.
	if m.state == chatIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport (scrolling).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return answerStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return answerStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(questionStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n")
			if len(msg.sources) > 0 {
				ids := make([]string, len(msg.sources))
				for i, src := range msg.sources {
					ids[i] = src.ChunkID
				}
				sb.WriteString(mutedStyle.Render("Sources: "+strings.Join(ids, ", ")) + "\n")
			}
			sb.WriteString("\n")
		case "error":
			sb.WriteString(errStyle.Render("Error: "+msg.content) + "\n\n")
		case "system":
			sb.WriteString(mutedStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.state != chatIdle {
		sb.WriteString(m.spinner.View() + " " + mutedStyle.Render("Thinking...") + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	if m.state == chatThinking {
		statusText = "thinking..."
	}
	statusBar := footerStyle.
		Width(m.width).
		Render(fmt.Sprintf(" askpdf • %s • %s", m.docName, statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
