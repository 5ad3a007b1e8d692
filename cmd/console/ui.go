package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/dialogue-engine/pkg/actor"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/sequence"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
	"github.com/jwebster45206/dialogue-engine/pkg/typewriter"
)

// maxFrameStep caps how far one tick may move the scheduler clock, so a
// suspended terminal does not fast-forward the whole scene on resume.
const maxFrameStep = 250 * time.Millisecond

// playback is the engine side of the console. It is shared by every copy of
// the bubbletea model and only touched from Update.
type playback struct {
	sched    *schedule.Scheduler
	director *dialogue.Director
	rec      *stage.Recorder
	seq      *sequence.Sequencer // nil when playing single stories
	load     sequence.Loader
	interval time.Duration
	logger   *slog.Logger

	transcript []string
	lastTick   time.Time
	notice     string
}

// Notify records finished lines and choices in the transcript.
func (p *playback) Notify(e dialogue.Event) {
	switch e.Type {
	case dialogue.EventLineRevealed:
		if plain := typewriter.Plain(e.Line, -1); plain != "" {
			p.transcript = append(p.transcript, p.speakerPrefix()+plain)
		}
	case dialogue.EventChoiceMade:
		if len(e.Choices) > 0 {
			p.transcript = append(p.transcript, choiceStyle.Render("▶ "+e.Choices[0]))
		}
	case dialogue.EventSessionEnded:
		p.transcript = append(p.transcript, separatorStyle.Render("── "+e.Asset+" ──"))
	case dialogue.EventDiagnostic:
		p.notice = e.Error
	}
}

func (p *playback) speakerPrefix() string {
	st := p.director.Stage()
	name := st.Speaker()
	if name == "" {
		return ""
	}
	if m, ok := st.Member(name); ok {
		return speakerStyle.Render(m.DisplayName()+": ")
	}
	return ""
}

type frameMsg time.Time

type storiesLoadedMsg struct {
	names []string
	err   error
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	pb           *playback
	chatViewport viewport.Model
	metaViewport viewport.Model
	help         help.Model
	ready        bool
	width        int
	height       int
	err          error

	// Story selection state, used when no episode is configured
	showStoryModal bool
	stories        []string
	selectedStory  int
	listStories    func() ([]string, error)

	// Quit confirmation state
	showQuitModal bool
}

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

	nameTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 1)

	dialoguePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	focusedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

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

func NewConsoleUI(pb *playback, listStories func() ([]string, error)) ConsoleUI {
	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		pb:             pb,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		help:           help.New(),
		showStoryModal: pb.seq == nil,
		listStories:    listStories,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	cmds := []tea.Cmd{m.frame()}
	if m.showStoryModal {
		cmds = append(cmds, m.loadStories())
	} else {
		m.pb.seq.Start()
	}
	return tea.Batch(cmds...)
}

func (m ConsoleUI) frame() tea.Cmd {
	return tea.Tick(m.pb.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		names, err := m.listStories()
		return storiesLoadedMsg{names, err}
	}
}

// tick advances the scheduler by the real time since the previous frame.
func (m *ConsoleUI) tick(now time.Time) {
	dt := m.pb.interval
	if !m.pb.lastTick.IsZero() {
		dt = min(now.Sub(m.pb.lastTick), maxFrameStep)
	}
	m.pb.lastTick = now
	m.pb.sched.Tick(dt)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Frames keep running behind the modals
	if f, ok := msg.(frameMsg); ok {
		m.tick(time.Time(f))
		m.refresh()
		return m, m.frame()
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	if m.showStoryModal && !m.pb.director.Playing() {
		return m.updateStoryModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) resize(width, height int) {
	m.width = width
	m.height = height

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = max(m.height-16, 3) // room for the dialogue panel and help
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.help.Width = chatWidth

	m.ready = true
	m.refresh()
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.pb.director
	s := d.Active()

	switch {
	case key.Matches(msg, keys.Quit):
		m.showQuitModal = true
		return m, nil

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, keys.Continue):
		// not waiting for continue: ignored
		_ = d.Continue()

	case key.Matches(msg, keys.Skip):
		d.Skip()

	case key.Matches(msg, keys.Up):
		if s != nil {
			s.MoveFocus(-1)
		}

	case key.Matches(msg, keys.Down):
		if s != nil {
			s.MoveFocus(1)
		}

	case key.Matches(msg, keys.Choose):
		if s == nil {
			break
		}
		if msg.String() == "enter" {
			_ = s.ChooseFocused()
		} else {
			_ = s.Choose(int(msg.String()[0]-'1'))
		}

	case key.Matches(msg, keys.Copy):
		if s != nil {
			if err := clipboard.WriteAll(typewriter.Plain(s.Line(), -1)); err != nil {
				m.pb.logger.Warn("Failed to copy line to clipboard", "error", err)
				m.pb.notice = "clipboard unavailable"
			} else {
				m.pb.notice = "line copied"
			}
		}
	}

	m.refresh()
	return m, nil
}

// refresh rewrites the transcript and stage panels from the engine state.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	width := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE") + "\n\n")
	if m.pb.seq != nil {
		if title, visible := m.pb.seq.Title(); visible {
			content.WriteString(modalTitleStyle.Render(title) + "\n\n")
		}
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")
	for _, line := range m.pb.transcript {
		content.WriteString(wordwrap.String(line, width) + "\n\n")
	}
	if m.pb.seq != nil && m.pb.seq.Phase() == sequence.PhaseChallenge {
		content.WriteString(loadingStyle.Render("All dialogues have been played. The challenge begins!") + "\n")
	}

	atBottom := m.chatViewport.AtBottom()
	m.chatViewport.SetContent(content.String())
	if atBottom {
		m.chatViewport.GotoBottom()
	}

	m.metaViewport.SetContent(writeMetadata(m.pb))
}

func writeMetadata(pb *playback) string {
	st := pb.director.Stage()

	var content strings.Builder
	content.WriteString(titleStyle.Render("STAGE") + "\n\n")

	if pb.seq != nil {
		content.WriteString("Episode:\n")
		content.WriteString(fmt.Sprintf("%s (%s, %d/%d)\n\n",
			pb.seq.Episode().Title, pb.seq.Phase(), min(pb.seq.Index()+1, len(pb.seq.Episode().Dialogues)), len(pb.seq.Episode().Dialogues)))
	}

	if s := pb.director.Active(); s != nil {
		content.WriteString("Session:\n")
		content.WriteString(s.ID().String()[:8] + "...\n")
		content.WriteString(fmt.Sprintf("%s, %s\n\n", s.Asset(), s.State()))
	} else {
		content.WriteString("Session:\nNone\n\n")
	}

	content.WriteString("Background:\n")
	content.WriteString(orNone(st.Background()) + "\n\n")

	content.WriteString("Cast:\n")
	for _, name := range st.Names() {
		a := st.Actor(name)
		marker := " "
		if a.NameTag {
			marker = "•"
		}
		content.WriteString(fmt.Sprintf("%s %s [%s]\n", marker, name, a.Portrait))
		for _, r := range actor.Regions {
			if clip := a.Clip(r); clip != "" {
				content.WriteString(fmt.Sprintf("    %s: %s\n", r, clip))
			}
		}
	}
	content.WriteString("\n")

	content.WriteString("Audio:\n")
	for _, ch := range []stage.Channel{stage.ChannelBGM, stage.ChannelSFX} {
		content.WriteString(fmt.Sprintf("• %s: %s\n", ch, orNone(pb.rec.Current(string(ch)))))
	}

	if pb.notice != "" {
		content.WriteString("\n" + errorStyle.Render(pb.notice) + "\n")
	}

	return content.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (m ConsoleUI) renderDialoguePanel(width int) string {
	s := m.pb.director.Active()
	if s == nil || !s.PanelVisible() {
		return ""
	}
	v := s.View()

	var content strings.Builder
	if name := m.pb.director.Stage().Speaker(); name != "" {
		if mem, ok := m.pb.director.Stage().Member(name); ok {
			content.WriteString(nameTagStyle.Render(mem.DisplayName()) + "\n")
		}
	}
	content.WriteString(wordwrap.String(v.Plain, max(width-4, 10)))
	if v.State == dialogue.StateAwaitingContinue {
		content.WriteString(" " + promptStyle.Render("▼"))
	}

	for i, slot := range v.Slots {
		if !slot.Visible {
			continue
		}
		label := fmt.Sprintf("%d. %s", i+1, slot.Text)
		content.WriteString("\n")
		if i == v.Focus {
			content.WriteString(focusedChoiceStyle.Render("▶ " + label))
		} else {
			content.WriteString(choiceStyle.Render("  " + label))
		}
	}

	return dialoguePanelStyle.Width(width).Render(content.String())
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case storiesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.stories = msg.names
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if m.err != nil || len(m.stories) == 0 {
				return m, nil
			}
			name := m.stories[m.selectedStory]
			asset, err := m.pb.load(name)
			if err != nil {
				m.pb.notice = err.Error()
				return m, nil
			}
			if _, err := m.pb.director.Enter(asset); err != nil {
				m.pb.notice = err.Error()
			}
			m.refresh()
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
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
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the story?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load stories: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.stories == nil:
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
	case len(m.stories) == 0:
		content.WriteString(modalTitleStyle.Render("No Stories"))
		content.WriteString("\n\n")
		content.WriteString("Add story files to the data directory.")
	default:
		content.WriteString(modalTitleStyle.Render("Select a Story"))
		content.WriteString("\n\n")

		for i, name := range m.stories {
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	if m.pb.notice != "" {
		content.WriteString("\n\n" + errorStyle.Render(m.pb.notice))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showStoryModal && !m.pb.director.Playing() {
		return m.renderStoryModal()
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
			m.renderDialoguePanel(chatWidth-4),
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.help.View(keys),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
