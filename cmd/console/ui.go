package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/questweaver/questweaver/internal/handlers"
	"github.com/questweaver/questweaver/pkg/chat"
	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/state"
	"github.com/questweaver/questweaver/pkg/stats"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "Type an action, a choice number, or !action for a heroic move..."
)

// Genres offered in the new-game modal. Free text is accepted by the
// API; these are just the curated picks.
var genres = []string{"Fantasy", "Sci-Fi", "Horror", "Noir", "Western"}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	game         *handlers.GameResponse
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Set after a failed turn; enables Ctrl+R.
	canRetry bool

	// New-game modal state
	showCreateModal bool
	heroName        string
	selectedGenre   int
	creatingGame    bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Transient notice shown in the sidebar (e.g. export copied).
	notice string
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type gameRefreshMsg struct {
	game *handlers.GameResponse
	err  error
}

type gameCreatedMsg struct {
	game *handlers.GameResponse
	err  error
}

type cancelDoneMsg struct {
	cancelled bool
	err       error
}

type exportCopiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // gold

	rollStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")) // lavender

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	hpBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")) // green

	hpBarLowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:          cfg,
		client:          client,
		textarea:        ta,
		chatViewport:    chatVp,
		metaViewport:    metaVp,
		ready:           false,
		showCreateModal: true,
		selectedGenre:   0,
	}
}

func writeInitialContent(game *handlers.GameResponse, chatWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("QUESTWEAVER") + "\n\n")
	content.WriteString("Describe what you do and press Enter. Pick a numbered choice\n")
	content.WriteString("by typing its number, or spend a heroic action with !your move.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	if game != nil && game.State != nil {
		content.WriteString(narratorStyle.Render(fmt.Sprintf(
			"%s: Welcome, %s. Your %s adventure begins. What do you do first?",
			AgentName, game.State.Name, strings.ToLower(game.State.Genre))) + "\n\n")
	}
	return content.String()
}

// renderHPBar draws current/max HP as a fixed-width block bar, red
// when the character is below a quarter health.
func renderHPBar(hp, maxHP, width int) string {
	if width < 10 {
		width = 10
	}
	if maxHP <= 0 {
		maxHP = 1
	}
	if hp < 0 {
		hp = 0
	}
	filled := (hp * width) / maxHP
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := hpBarStyle
	if hp*4 < maxHP {
		style = hpBarLowStyle
	}
	return style.Render(bar) + fmt.Sprintf(" %d/%d", hp, maxHP)
}

func writeMetadata(game *handlers.GameResponse, notice string) string {
	var content strings.Builder
	cs := game.State
	content.WriteString(titleStyle.Render(strings.ToUpper(cs.Name)) + "\n")
	content.WriteString(promptStyle.Render(cs.Genre) + "\n\n")

	content.WriteString("HP:\n")
	content.WriteString(renderHPBar(cs.HP, cs.MaxHP, 12) + "\n\n")

	content.WriteString("Stats:\n")
	effective := cs.EffectiveStats()
	for _, axis := range stats.All() {
		v := effective.Get(axis)
		base := cs.BaseStats.Get(axis)
		line := fmt.Sprintf("%s %2d", axis, v)
		if v != base {
			line += fmt.Sprintf(" (%+d)", v-base)
		}
		if mod := stats.Modifier(v); mod != 0 {
			line += fmt.Sprintf("  [%+d]", mod)
		}
		content.WriteString(line + "\n")
	}
	content.WriteString("\n")

	if cs.CurrentQuest != "" {
		content.WriteString("Quest:\n")
		content.WriteString(cs.CurrentQuest + "\n\n")
	}

	content.WriteString(fmt.Sprintf("Heroic actions: %d\n\n", cs.CustomActionsRemaining))

	if len(cs.ActiveEffects) > 0 {
		content.WriteString("Effects:\n")
		for _, e := range cs.ActiveEffects {
			content.WriteString(fmt.Sprintf("• %s (%d)\n", e.Name, e.Duration))
		}
		content.WriteString("\n")
	}

	content.WriteString("Equipped:\n")
	if items := cs.Equipped.Items(); len(items) > 0 {
		for _, it := range items {
			content.WriteString("• " + it.Name + "\n")
		}
	} else {
		content.WriteString("Nothing\n")
	}
	content.WriteString("\n")

	content.WriteString("Inventory:\n")
	if len(cs.Inventory) > 0 {
		for _, it := range cs.Inventory {
			content.WriteString("• " + it.Name + "\n")
		}
	} else {
		content.WriteString("Empty\n")
	}
	content.WriteString("\n")

	if len(cs.NPCs) > 0 {
		content.WriteString("NPCs:\n")
		for _, n := range cs.NPCs {
			content.WriteString(fmt.Sprintf("• %s (%s, %s)\n", n.Name, n.Type, n.Condition))
		}
		content.WriteString("\n")
	}

	if cs.GameStatus.Terminal() {
		content.WriteString("Status:\n")
		content.WriteString(strings.ToUpper(string(cs.GameStatus)) + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• Esc: Cancel turn\n")
	content.WriteString("• Ctrl+R: Retry turn\n")
	content.WriteString("• Ctrl+E: Copy log\n")
	content.WriteString("• Ctrl+C: Quit\n")

	if notice != "" {
		content.WriteString("\n" + loadingStyle.Render(notice) + "\n")
	}

	return content.String()
}

// writeChatContent rebuilds the transcript from game history for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	if m.game == nil || m.game.State == nil || len(m.game.State.History) == 0 {
		m.chatViewport.SetContent(writeInitialContent(m.game, chatWidth))
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("QUESTWEAVER") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, turn := range m.game.State.History {
		if turn.IsUser {
			line := userStyle.Render("You: ") + wordwrap.String(turn.Text, chatWidth-6)
			content.WriteString(line + "\n")
			if turn.Roll != nil {
				content.WriteString(rollStyle.Render(formatRoll(turn.Roll)) + "\n")
			}
			if turn.LevelUp != nil {
				content.WriteString(rollStyle.Render(fmt.Sprintf(
					"  ★ %s increases %d → %d",
					turn.LevelUp.Stat.Name(), turn.LevelUp.OldValue, turn.LevelUp.NewValue)) + "\n")
			}
			content.WriteString("\n")
			continue
		}
		content.WriteString(formatNarratorResponse(turn.Text, chatWidth) + "\n\n")
	}

	if m.game.State.FinalSummary != "" {
		content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")
		content.WriteString(titleStyle.Render("EPILOGUE") + "\n\n")
		content.WriteString(narratorStyle.Render(wordwrap.String(m.game.State.FinalSummary, chatWidth-2)) + "\n\n")
	}

	if !m.loading && !m.game.State.GameStatus.Terminal() && len(m.game.Choices) > 0 {
		content.WriteString(m.renderChoices(chatWidth))
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatRoll(r *dice.RollResult) string {
	outcome := "FAILURE"
	if r.Success {
		outcome = "SUCCESS"
	}
	return fmt.Sprintf("  🎲 %s check: %d%+d = %d vs DC %d — %s",
		r.Stat, r.Base, r.Modifier, r.Total, r.Difficulty, outcome)
}

// renderChoices lists the current numbered options with their check
// stat, DC and estimated odds.
func (m *ConsoleUI) renderChoices(chatWidth int) string {
	var content strings.Builder
	effective := m.game.State.EffectiveStats()
	for i, ch := range m.game.Choices {
		line := fmt.Sprintf("%d. %s", i+1, ch.Text)
		if ch.Stat.Valid() {
			chance := dice.SuccessChance(effective.Get(ch.Stat), ch.Difficulty)
			line += fmt.Sprintf(" (%s DC %d, ~%d%%)", ch.Stat, ch.Difficulty, chance)
		}
		content.WriteString(choiceStyle.Render(wordwrap.String(line, chatWidth-4)) + "\n")
	}
	content.WriteString("\n")
	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle new-game modal first
	if m.showCreateModal {
		return m.updateCreateModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		if m.game != nil {
			m.metaViewport.SetContent(writeMetadata(m.game, m.notice))
		}
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil

		case tea.KeyEsc:
			// Esc abandons an in-flight turn; the turn stays
			// retryable server-side.
			if m.loading {
				return m, m.cancelTurn()
			}
			return m, nil

		case tea.KeyCtrlR:
			if m.loading || !m.canRetry {
				return m, nil
			}
			m.loading = true
			m.err = nil
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.retryTurn(), progressTick())

		case tea.KeyCtrlE:
			if m.game != nil {
				return m, m.copyExport()
			}
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.game.State.GameStatus.Terminal() {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			req, err := m.buildTurnRequest(input)
			if err != nil {
				m.err = err
				m.writeChatContent()
				current := m.chatViewport.View()
				m.chatViewport.SetContent(current + errorStyle.Render("Error: "+err.Error()) + "\n\n")
				m.textarea.Reset()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			m.notice = ""
			m.progressTick = 0

			// Echo the action locally; the server transcript
			// replaces this on refresh.
			echo := input
			if req.ChoiceIndex != nil {
				echo = m.game.Choices[*req.ChoiceIndex].Text
			}
			m.game.State.History = append(m.game.State.History, state.StoryTurn{Text: echo, IsUser: true})
			m.writeChatContent()

			return m, tea.Batch(m.sendTurn(req), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.canRetry = true
			m.writeChatContent()
			current := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n" +
				promptStyle.Render("Press Ctrl+R to retry the turn.") + "\n\n"
			m.chatViewport.SetContent(current + errorMsg)
			m.chatViewport.GotoBottom()
			return m, nil
		}
		m.canRetry = false
		return m, m.refreshGame()

	case gameRefreshMsg:
		if msg.err == nil && msg.game != nil {
			m.game = msg.game
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.game, m.notice))
		}

	case cancelDoneMsg:
		if msg.err == nil && msg.cancelled {
			m.loading = false
			m.canRetry = true
			m.writeChatContent()
			current := m.chatViewport.View()
			m.chatViewport.SetContent(current +
				loadingStyle.Render("Turn cancelled.") + " " +
				promptStyle.Render("Press Ctrl+R to re-roll the response.") + "\n\n")
			m.chatViewport.GotoBottom()
		}

	case exportCopiedMsg:
		if msg.err != nil {
			m.notice = "Export failed: " + msg.err.Error()
		} else {
			m.notice = "Adventure log copied to clipboard."
		}
		if m.game != nil {
			m.metaViewport.SetContent(writeMetadata(m.game, m.notice))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// buildTurnRequest interprets console input: a bare number picks the
// matching offered choice, a leading "!" spends a heroic action, and
// anything else is a plain freeform action.
func (m *ConsoleUI) buildTurnRequest(input string) (chat.TurnRequest, error) {
	req := chat.TurnRequest{GameID: m.game.State.ID}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(m.game.Choices) {
			return req, fmt.Errorf("no choice numbered %d", n)
		}
		idx := n - 1
		req.ChoiceIndex = &idx
		return req, nil
	}

	if rest, ok := strings.CutPrefix(input, "!"); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return req, fmt.Errorf("heroic action needs a description after !")
		}
		if m.game.State.CustomActionsRemaining <= 0 {
			return req, fmt.Errorf("no heroic actions remaining")
		}
		req.Action = rest
		req.Heroic = true
		return req, nil
	}

	req.Action = input
	return req, nil
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		narratorPrefix := AgentName + ": "
		wrapWidth = width - len(narratorPrefix)
	}

	wrappedResponse := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrappedResponse, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}

	return result
}

func (m ConsoleUI) sendTurn(req chat.TurnRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := postTurn(m.client, m.config.APIBaseURL, m.game.State.ID, req)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) retryTurn() tea.Cmd {
	return func() tea.Msg {
		resp, err := postRetry(m.client, m.config.APIBaseURL, m.game.State.ID)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) cancelTurn() tea.Cmd {
	return func() tea.Msg {
		cancelled, err := postCancel(m.client, m.config.APIBaseURL, m.game.State.ID)
		return cancelDoneMsg{cancelled: cancelled, err: err}
	}
}

func (m ConsoleUI) refreshGame() tea.Cmd {
	return func() tea.Msg {
		game, err := getGame(m.client, m.config.APIBaseURL, m.game.State.ID)
		return gameRefreshMsg{game, err}
	}
}

func (m ConsoleUI) copyExport() tea.Cmd {
	return func() tea.Msg {
		log, err := getExport(m.client, m.config.APIBaseURL, m.game.State.ID)
		if err != nil {
			return exportCopiedMsg{err}
		}
		return exportCopiedMsg{clipboard.WriteAll(log)}
	}
}

func (m ConsoleUI) createGame() tea.Cmd {
	name := m.heroName
	genre := genres[m.selectedGenre]
	return func() tea.Msg {
		game, err := createGame(m.client, m.config.APIBaseURL, handlers.CreateGameRequest{
			Name:  name,
			Genre: genre,
		})
		return gameCreatedMsg{game, err}
	}
}

func (m ConsoleUI) updateCreateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gameCreatedMsg:
		m.creatingGame = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.game = msg.game
			m.showCreateModal = false
			m.err = nil
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.game, ""))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.creatingGame {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedGenre > 0 {
				m.selectedGenre--
			}
		case tea.KeyDown:
			if m.selectedGenre < len(genres)-1 {
				m.selectedGenre++
			}
		case tea.KeyBackspace:
			if len(m.heroName) > 0 {
				m.heroName = m.heroName[:len(m.heroName)-1]
			}
		case tea.KeyEnter:
			if strings.TrimSpace(m.heroName) == "" {
				m.err = fmt.Errorf("your hero needs a name")
				return m, nil
			}
			m.err = nil
			m.creatingGame = true
			return m, m.createGame()
		case tea.KeyRunes:
			if len(m.heroName) < 40 {
				m.heroName += string(msg.Runes)
			}
		case tea.KeySpace:
			if len(m.heroName) < 40 {
				m.heroName += " "
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				if !m.showCreateModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to abandon your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCreateModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.creatingGame {
		content.WriteString(modalTitleStyle.Render("Creating Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("The narrator is setting the scene..."))
	} else {
		content.WriteString(modalTitleStyle.Render("New Adventure"))
		content.WriteString("\n\n")

		content.WriteString("Hero name:\n")
		name := m.heroName
		if name == "" {
			name = promptStyle.Render("(type a name)")
		}
		content.WriteString(userStyle.Render(name+"▌") + "\n\n")

		content.WriteString("Genre:\n")
		for i, g := range genres {
			if i == m.selectedGenre {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", g)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", g)))
			}
			content.WriteString("\n")
		}

		if m.err != nil {
			content.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Type a name, ↑/↓ to pick a genre, Enter to begin, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCreateModal {
		return m.renderCreateModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
