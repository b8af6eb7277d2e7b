// Package tui is the console front end: bubbletea menus over the game
// manager's operations. It holds no game state of its own.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/infinite-legends/internal/game"
	"github.com/tatianab/infinite-legends/internal/models"
)

type sessionState int

const (
	stateMenu sessionState = iota
	stateKeywords
	stateLoadMenu
	stateLoading
	statePlaying
	stateUseItem
	stateHistory
	stateError
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	fixedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13"))

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	narrativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("8")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("7"))
)

type model struct {
	manager *game.Manager

	state     sessionState
	prevState sessionState // where to return from error/history screens

	textInput textinput.Model
	viewport  viewport.Model
	spin      spinner.Model

	keywords []string
	saves    []string
	loading  string
	notice   string
	err      error

	width  int
	height int
}

func newModel(manager *game.Manager) model {
	ti := textinput.New()
	ti.Placeholder = "Enter your choice..."
	ti.Focus()
	ti.CharLimit = 80
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = promptStyle

	return model{
		manager:   manager,
		state:     stateMenu,
		textInput: ti,
		spin:      sp,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type gameStartedMsg struct{ err error }

type gameLoadedMsg struct{ err error }

type turnDoneMsg struct {
	round *models.Round
	err   error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.state == stateHistory {
				m.state = m.prevState
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.72)
		m.viewport.Height = msg.Height - 8
		if m.state == statePlaying {
			m.viewport.SetContent(m.renderRound())
		}

	case spinner.TickMsg:
		if m.state == stateLoading {
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}

	case gameStartedMsg:
		if msg.err != nil {
			return m.fail(msg.err, stateMenu), nil
		}
		return m.enterPlaying(), nil

	case gameLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err, stateMenu), nil
		}
		m.notice = "Game loaded successfully."
		return m.enterPlaying(), nil

	case turnDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, game.ErrAutosaveFailed) {
				m.notice = "Warning: progress could not be saved."
				return m.enterPlaying(), nil
			}
			// The turn failed; the session is still where it was.
			return m.fail(msg.err, statePlaying), nil
		}
		return m.enterPlaying(), nil
	}

	if m.state != stateLoading {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textInput.Value())
	m.textInput.Reset()

	switch m.state {
	case stateMenu:
		switch input {
		case "1":
			m.state = stateKeywords
			m.keywords = nil
			m.textInput.Placeholder = "Keyword (empty to start)..."
		case "2":
			saves, err := m.manager.ListSaves()
			if err != nil {
				return m.fail(err, stateMenu), nil
			}
			m.saves = saves
			m.state = stateLoadMenu
		case "3":
			return m, tea.Quit
		}
		return m, nil

	case stateKeywords:
		if input != "" {
			m.keywords = append(m.keywords, input)
			return m, nil
		}
		newM := m.startLoading("Generating your story...")
		return newM, newM.startGame(newM.keywords)

	case stateLoadMenu:
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(m.saves)+1 {
			return m, nil
		}
		if idx == len(m.saves)+1 {
			m.state = stateMenu
			return m, nil
		}
		newM := m.startLoading("Loading game...")
		return newM, newM.loadGame(m.saves[idx-1])

	case statePlaying:
		return m.handlePlayingInput(input)

	case stateUseItem:
		if input == "" {
			m.state = statePlaying
			return m, nil
		}
		idx, err := strconv.Atoi(input)
		inv := m.manager.Inventory()
		if err != nil || idx < 1 || idx > len(inv) {
			return m, nil
		}
		newM := m.startLoading("Using " + inv[idx-1].Name + "...")
		return newM, newM.useItem(inv[idx-1].Name)

	case stateHistory:
		m.state = m.prevState
		return m, nil

	case stateError:
		m.err = nil
		m.state = m.prevState
		if m.state == statePlaying && !m.manager.HasSession() {
			m.state = stateMenu
		}
		return m, nil
	}

	return m, nil
}

func (m model) handlePlayingInput(input string) (tea.Model, tea.Cmd) {
	round, err := m.manager.CurrentRound()
	if err != nil {
		return m.fail(err, stateMenu), nil
	}

	if round.GameOver {
		// Any entry returns to the menu; EndSession writes the final
		// save.
		if err := m.manager.EndSession(); err != nil {
			m.notice = "Warning: final save failed."
		}
		m.state = stateMenu
		return m, nil
	}

	idx, err := strconv.Atoi(input)
	if err != nil {
		return m, nil
	}
	n := len(round.Choices)
	switch {
	case idx >= 1 && idx <= n:
		newM := m.startLoading("The story continues...")
		return newM, newM.submitChoice(idx - 1)
	case idx == n+1:
		m.state = stateUseItem
		m.textInput.Placeholder = "Item number (empty to cancel)..."
		return m, nil
	case idx == n+2:
		m.prevState = statePlaying
		m.state = stateHistory
		return m, nil
	case idx == n+3:
		if err := m.manager.EndSession(); err != nil {
			m.notice = "Warning: final save failed."
		}
		m.state = stateMenu
		return m, nil
	}
	return m, nil
}

func (m model) startLoading(text string) model {
	m.state = stateLoading
	m.loading = text
	return m
}

func (m model) enterPlaying() model {
	m.state = statePlaying
	m.err = nil
	m.textInput.Placeholder = "Enter your choice..."
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(int(float64(m.width)*0.72), m.height-8)
	}
	m.viewport.SetContent(m.renderRound())
	m.viewport.GotoTop()
	return m
}

func (m model) fail(err error, returnTo sessionState) model {
	m.err = err
	m.prevState = returnTo
	m.state = stateError
	return m
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateMenu:
		s = titleStyle.Render("=== Infinite Legends: An AI-driven Text-Based Role-Playing Game ===") + "\n\n" +
			choiceStyle.Render("1. New Game") + "\n" +
			choiceStyle.Render("2. Load Game") + "\n" +
			choiceStyle.Render("3. Quit") + "\n\n"
		if m.notice != "" {
			s += noticeStyle.Render(m.notice) + "\n\n"
		}
		s += m.textInput.View()

	case stateKeywords:
		s = titleStyle.Render("Enter keywords for the game theme") + "\n" +
			noticeStyle.Render("One per line; press Enter on an empty line to start.") + "\n\n"
		for _, kw := range m.keywords {
			s += choiceStyle.Render("- "+kw) + "\n"
		}
		s += "\n" + m.textInput.View()

	case stateLoadMenu:
		s = titleStyle.Render("=== Load Game ===") + "\n\n"
		if len(m.saves) == 0 {
			s += errorStyle.Render("No save files found.") + "\n\n" +
				fixedStyle.Render("1. Return to Main Menu") + "\n\n"
		} else {
			for i, name := range m.saves {
				s += choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, name)) + "\n"
			}
			s += fixedStyle.Render(fmt.Sprintf("%d. Return to Main Menu", len(m.saves)+1)) + "\n\n"
		}
		s += m.textInput.View()

	case stateLoading:
		s = "\n  " + m.spin.View() + " " + promptStyle.Render(m.loading) + "\n"

	case statePlaying:
		main := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderPanel())
		s = lipgloss.JoinVertical(lipgloss.Left, main, "", m.textInput.View())
		if m.notice != "" {
			s += "\n" + noticeStyle.Render(m.notice)
		}

	case stateUseItem:
		s = titleStyle.Render("=== Use Item ===") + "\n\n"
		inv := m.manager.Inventory()
		if len(inv) == 0 {
			s += errorStyle.Render("Your inventory is empty.") + "\n"
		} else {
			for i, item := range inv {
				s += choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, item)) + "\n"
			}
		}
		s += "\n" + m.textInput.View()

	case stateHistory:
		s = titleStyle.Render("=== Dialogue History ===") + "\n\n" +
			m.renderHistory() + "\n" +
			noticeStyle.Render("Press Enter to go back.")

	case stateError:
		s = errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			noticeStyle.Render("Press Enter to continue.")
	}

	return "\n" + s + "\n"
}

func (m model) renderRound() string {
	round, err := m.manager.CurrentRound()
	if err != nil {
		return ""
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 76
	}

	var b strings.Builder
	for _, item := range round.LoseItems {
		b.WriteString(itemStyle.Render("[Lose Item] "+item.String()) + "\n")
	}
	for _, item := range round.GetItems {
		b.WriteString(itemStyle.Render("[Get Item] "+item.String()) + "\n")
	}
	b.WriteString(titleStyle.Render("=== Dialogue ===") + "\n\n")
	b.WriteString(narrativeStyle.Width(width).Render(round.Narrative) + "\n\n")

	if round.GameOver {
		b.WriteString(titleStyle.Render("The story has ended. Thank you for playing!") + "\n")
		b.WriteString(noticeStyle.Render("Press Enter to return to the main menu."))
		return b.String()
	}

	b.WriteString(titleStyle.Render("=== Options ===") + "\n")
	for i, choice := range round.Choices {
		b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, choice)) + "\n")
	}
	n := len(round.Choices)
	b.WriteString(fixedStyle.Render(fmt.Sprintf("%d. Use Item", n+1)) + "\n")
	b.WriteString(fixedStyle.Render(fmt.Sprintf("%d. View Dialogue History", n+2)) + "\n")
	b.WriteString(fixedStyle.Render(fmt.Sprintf("%d. Return to Main Menu", n+3)) + "\n")
	return b.String()
}

func (m model) renderPanel() string {
	inv := m.manager.Inventory()
	content := titleStyle.Render("INVENTORY") + "\n"
	if len(inv) == 0 {
		content += "(empty)"
	} else {
		for _, item := range inv {
			content += "- " + item.Name + "\n"
		}
	}
	width := int(float64(m.width) * 0.24)
	return panelStyle.Width(width).Height(m.viewport.Height).Render(content)
}

func (m model) renderHistory() string {
	var b strings.Builder
	for _, rec := range m.manager.Records() {
		line := rec.String()
		switch rec.Kind {
		case models.RecordTurn:
			b.WriteString(narrativeStyle.Render(line))
		case models.RecordItemAcquired, models.RecordItemRemoved:
			b.WriteString(itemStyle.Render(line))
		default:
			b.WriteString(choiceStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) startGame(keywords []string) tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return gameStartedMsg{err: m.manager.StartNewGame(context.Background(), keywords)}
	})
}

func (m model) loadGame(name string) tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return gameLoadedMsg{err: m.manager.Load(name)}
	})
}

func (m model) submitChoice(index int) tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		round, err := m.manager.SubmitChoice(context.Background(), index)
		return turnDoneMsg{round: round, err: err}
	})
}

func (m model) useItem(name string) tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		round, err := m.manager.UseItem(context.Background(), name)
		return turnDoneMsg{round: round, err: err}
	})
}

// Run starts the TUI over the given manager and blocks until exit.
func Run(manager *game.Manager) error {
	p := tea.NewProgram(newModel(manager), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
