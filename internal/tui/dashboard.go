package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avendel/shellyauth/internal/discovery"
	"github.com/avendel/shellyauth/internal/feed"
	"github.com/avendel/shellyauth/internal/shelly"
)

// mode is the dashboard's current input mode
type mode int

const (
	modeList     mode = iota // navigating the device list
	modeScanning             // mDNS scan in progress
	modePrompt               // collecting the writer password
	modeWorking              // auth change in flight
)

// DeviceEntry is one device to manage, with its optional per-device
// reader credentials from the registry
type DeviceEntry struct {
	Device shelly.Device
	Reader *shelly.Credentials
}

// deviceRow is one device on the dashboard with its cached state
type deviceRow struct {
	sw           *shelly.AuthSwitch
	coord        *feed.Coordinator
	state        shelly.AuthState
	connectivity string
	refreshing   bool
}

// keyMap defines the dashboard key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Refresh key.Binding
	Scan    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Refresh, k.Scan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Toggle, k.Refresh, k.Scan, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a/enter", "toggle auth"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Messages produced by background commands
type scanResultMsg struct {
	devices []*discovery.Device
	err     error
}

type rowStateMsg struct {
	index int
	state shelly.AuthState
}

type rowConnectivityMsg struct {
	index        int
	connectivity string
}

type toggleResultMsg struct {
	index  int
	enable bool
	ok     bool
}

type rowFeedMsg struct {
	index int
	coord *feed.Coordinator
}

// Model is the dashboard's bubbletea model
type Model struct {
	rows   []deviceRow
	cursor int
	mode   mode

	// Toggle state while prompting for the writer password
	pendingIndex  int
	pendingEnable bool
	passwordInput textinput.Model

	writerUsername string
	scanTimeout    time.Duration
	autoScan       bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	statusLine string
	Width      int
	Height     int
}

// NewModel creates a dashboard for the given devices. Devices found by a
// later scan are appended to the list; autoScan starts a scan immediately.
func NewModel(entries []DeviceEntry, writerUsername string, scanTimeout time.Duration, autoScan bool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "password"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.PromptStyle = FocusedInputStyle

	rows := make([]deviceRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, deviceRow{
			sw:           shelly.NewAuthSwitch(entry.Device, nil, entry.Reader),
			state:        shelly.AuthUnknown,
			connectivity: shelly.ConnUnknown,
		})
	}

	if writerUsername == "" {
		writerUsername = shelly.DefaultUsername
	}
	if scanTimeout <= 0 {
		scanTimeout = discovery.DefaultScanTimeout
	}

	initialMode := modeList
	if autoScan || len(rows) == 0 {
		initialMode = modeScanning
	}

	return Model{
		rows:           rows,
		mode:           initialMode,
		passwordInput:  input,
		writerUsername: writerUsername,
		scanTimeout:    scanTimeout,
		autoScan:       autoScan,
		spinner:        sp,
		help:           help.New(),
		keys:           defaultKeyMap(),
	}
}

// Init starts the spinner and refreshes every known device
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	for i := range m.rows {
		cmds = append(cmds, refreshCmd(i, m.rows[i].sw))
		cmds = append(cmds, connectivityCmd(i, m.rows[i].sw.Client()))
		cmds = append(cmds, feedCmd(i, m.rows[i].sw.Device.Host))
	}
	if m.autoScan || len(m.rows) == 0 {
		cmds = append(cmds, scanCmd(m.scanTimeout))
	}
	return tea.Batch(cmds...)
}

// refreshCmd re-resolves one device's auth state in the background
func refreshCmd(index int, sw *shelly.AuthSwitch) tea.Cmd {
	return func() tea.Msg {
		state := sw.Refresh(context.Background())
		return rowStateMsg{index: index, state: state}
	}
}

// connectivityCmd reads one device's connectivity descriptor
func connectivityCmd(index int, client *shelly.Client) tea.Cmd {
	return func() tea.Msg {
		conn := client.Connectivity(context.Background(), nil)
		return rowConnectivityMsg{index: index, connectivity: conn}
	}
}

// toggleCmd applies the pending auth change
func toggleCmd(index int, sw *shelly.AuthSwitch, creds shelly.Credentials, enable bool) tea.Cmd {
	return func() tea.Msg {
		ok := sw.SetAuth(context.Background(), creds, enable)
		return toggleResultMsg{index: index, enable: enable, ok: ok}
	}
}

// feedCmd dials the device's WebSocket feed. Gen1 devices and devices
// without a reachable /rpc endpoint simply stay on the polling path.
func feedCmd(index int, host string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), feed.DefaultDialTimeout)
		defer cancel()

		coord := feed.NewCoordinator(host)
		if err := coord.Start(ctx); err != nil {
			return rowFeedMsg{index: index, coord: nil}
		}
		return rowFeedMsg{index: index, coord: coord}
	}
}

// scanCmd runs an mDNS scan for Shelly devices
func scanCmd(timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		devices, err := discovery.ScanForDevices(timeout)
		return scanResultMsg{devices: devices, err: err}
	}
}

// Update handles all dashboard messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rowStateMsg:
		if msg.index < len(m.rows) {
			m.rows[msg.index].state = msg.state
			m.rows[msg.index].refreshing = false
		}
		return m, nil

	case rowConnectivityMsg:
		if msg.index < len(m.rows) {
			m.rows[msg.index].connectivity = msg.connectivity
		}
		return m, nil

	case rowFeedMsg:
		if msg.coord != nil && msg.index < len(m.rows) {
			row := &m.rows[msg.index]
			row.coord = msg.coord
			row.sw.AttachFeed(msg.coord)
			row.state = row.sw.State()
		}
		return m, nil

	case toggleResultMsg:
		m.mode = modeList
		if msg.index < len(m.rows) {
			row := &m.rows[msg.index]
			if msg.ok {
				m.statusLine = fmt.Sprintf("%s: auth %s", row.sw.Device, onOff(msg.enable))
				row.state = row.sw.State()
			} else {
				m.statusLine = ErrorStyle.Render(fmt.Sprintf("%s: auth change failed, state unchanged", row.sw.Device))
			}
		}
		return m, nil

	case scanResultMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusLine = ErrorStyle.Render(fmt.Sprintf("scan failed: %v", msg.err))
			return m, nil
		}
		var cmds []tea.Cmd
		for _, found := range msg.devices {
			if m.hasDevice(found.ID) {
				continue
			}
			device := shelly.Device{ID: found.ID, Name: found.ID, Host: found.Host()}
			m.rows = append(m.rows, deviceRow{
				sw:           shelly.NewAuthSwitch(device, nil, nil),
				state:        shelly.AuthUnknown,
				connectivity: shelly.ConnUnknown,
			})
			index := len(m.rows) - 1
			cmds = append(cmds, refreshCmd(index, m.rows[index].sw))
			cmds = append(cmds, connectivityCmd(index, m.rows[index].sw.Client()))
			cmds = append(cmds, feedCmd(index, device.Host))
		}
		m.statusLine = fmt.Sprintf("scan finished: %d device(s) known", len(m.rows))
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modePrompt {
		var cmd tea.Cmd
		m.passwordInput, cmd = m.passwordInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey routes key presses by input mode
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modePrompt {
		switch msg.String() {
		case "enter":
			password := m.passwordInput.Value()
			m.passwordInput.Reset()
			if password == "" {
				m.mode = modeList
				m.statusLine = ErrorStyle.Render("a password is required to change auth")
				return m, nil
			}
			m.mode = modeWorking
			creds := shelly.Credentials{Username: m.writerUsername, Password: password}
			return m, toggleCmd(m.pendingIndex, m.rows[m.pendingIndex].sw, creds, m.pendingEnable)
		case "esc":
			m.mode = modeList
			m.passwordInput.Reset()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.passwordInput, cmd = m.passwordInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.mode == modeList && m.cursor < len(m.rows) {
			m.rows[m.cursor].refreshing = true
			return m, tea.Batch(
				refreshCmd(m.cursor, m.rows[m.cursor].sw),
				connectivityCmd(m.cursor, m.rows[m.cursor].sw.Client()),
			)
		}

	case key.Matches(msg, m.keys.Scan):
		if m.mode == modeList {
			m.mode = modeScanning
			m.statusLine = ""
			return m, scanCmd(m.scanTimeout)
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.mode == modeList && m.cursor < len(m.rows) {
			row := m.rows[m.cursor]
			m.pendingIndex = m.cursor
			// An unknown state toggles towards enabled; the device
			// rejects a redundant change harmlessly.
			m.pendingEnable = row.state != shelly.AuthEnabled
			m.mode = modePrompt
			m.passwordInput.Focus()
			return m, textinput.Blink
		}
	}

	return m, nil
}

func (m Model) hasDevice(id string) bool {
	for _, row := range m.rows {
		if row.sw.Device.ID == id {
			return true
		}
	}
	return false
}

// View renders the dashboard
func (m Model) View() string {
	content := m.buildContent()
	helpText := m.help.View(m.keys)
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// buildContent builds the device list with state badges
func (m Model) buildContent() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Devices"))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.mode == modeScanning {
			b.WriteString(fmt.Sprintf("%s Scanning for Shelly devices...\n", m.spinner.View()))
		} else {
			b.WriteString(SubtitleStyle.Render("No devices known. Press s to scan the local network."))
			b.WriteString("\n")
		}
		return b.String()
	}

	for i, row := range m.rows {
		line := fmt.Sprintf("%-34s %-14s %s",
			row.sw.Device.String(),
			RenderAuthState(row.state.String()),
			SubtitleStyle.Render(row.connectivity),
		)
		if row.refreshing {
			line = m.spinner.View() + " " + line
		}
		if i == m.cursor {
			b.WriteString(SelectedListItemStyle.Render("→ " + line))
		} else {
			b.WriteString(ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	switch m.mode {
	case modeScanning:
		b.WriteString(fmt.Sprintf("\n%s Scanning for Shelly devices...\n", m.spinner.View()))
	case modeWorking:
		b.WriteString(fmt.Sprintf("\n%s Applying auth change...\n", m.spinner.View()))
	case modePrompt:
		row := m.rows[m.pendingIndex]
		prompt := fmt.Sprintf("Turn auth %s on %s\n\nUsername: %s\nPassword: %s\n\n%s",
			onOff(m.pendingEnable),
			row.sw.Device,
			m.writerUsername,
			m.passwordInput.View(),
			SubtitleStyle.Render("enter to confirm, esc to cancel"),
		)
		b.WriteString("\n")
		b.WriteString(PromptBoxStyle.Render(prompt))
		b.WriteString("\n")
	}

	if m.statusLine != "" && m.mode == modeList {
		b.WriteString("\n")
		b.WriteString(m.statusLine)
		b.WriteString("\n")
	}

	return b.String()
}

func onOff(enable bool) string {
	if enable {
		return "on"
	}
	return "off"
}

// Run starts the dashboard in the alternate screen
func Run(entries []DeviceEntry, writerUsername string, scanTimeout time.Duration, autoScan bool) error {
	program := tea.NewProgram(
		NewModel(entries, writerUsername, scanTimeout, autoScan),
		tea.WithAltScreen(),
	)
	final, err := program.Run()
	if m, ok := final.(Model); ok {
		for _, row := range m.rows {
			row.sw.Detach()
			if row.coord != nil {
				row.coord.Stop()
			}
		}
	}
	return err
}
