package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/rods"
	"github.com/reactorlab/pwrsim/internal/sim"
)

const (
	fps             = 30
	historyCapacity = 600
	eventCapacity   = 6
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(11)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	trippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	graphStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	eventStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// trendChannel pairs a caption with the snapshot field it plots.
type trendChannel struct {
	name string
	get  func(core.Snapshot) float64
}

var trendChannels = []trendChannel{
	{"neutron power %", func(s core.Snapshot) float64 { return s.NeutronPower * 100 }},
	{"thermal power %", func(s core.Snapshot) float64 { return s.ThermalPower * 100 }},
	{"tavg F", func(s core.Snapshot) float64 { return s.TavgF }},
	{"net reactivity pcm", func(s core.Snapshot) float64 { return s.TotalPcm() }},
	{"startup rate dpm", func(s core.Snapshot) float64 { return s.StartupRateDPM }},
	{"xenon pcm", func(s core.Snapshot) float64 { return s.Budget.XenonPcm }},
	{"boron ppm", func(s core.Snapshot) float64 { return s.BoronPPM }},
}

// Model is the live control room view. Each frame advances the wrapped
// session by compression/fps seconds of simulated time.
type Model struct {
	sess        *sim.Session
	plant       *config.Plant
	compression float64
	running     bool
	selected    rods.Bank
	channel     int
	trend       []float64
	events      []core.Event
	showHelp    bool
}

// NewModel wraps an initialized session for interactive display.
func NewModel(sess *sim.Session, plant *config.Plant, compression float64) Model {
	if compression < 1 {
		compression = 1
	}
	if compression > config.MaxCompression {
		compression = config.MaxCompression
	}
	return Model{
		sess:        sess,
		plant:       plant,
		compression: compression,
		running:     true,
		selected:    rods.BankD,
		trend:       make([]float64, 0, historyCapacity),
		events:      make([]core.Event, 0, eventCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles operator input and frame ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		r := m.sess.Reactor()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "w":
			r.WithdrawSequence()
		case "s":
			r.InsertSequence()
		case "x":
			r.StopRods()
		case "up", "k":
			r.WithdrawBank(m.selected)
		case "down", "j":
			r.InsertBank(m.selected)
		case "tab":
			m.selected = (m.selected + 1) % rods.NumBanks
		case "t":
			r.ManualTrip()
		case "r":
			// refused while rods are still falling
			r.ResetTrip()
		case "b":
			r.AddBoron(10)
		case "B":
			r.AddBoron(-10)
		case "f":
			m.sess.SetFlow(m.sess.Flow() - 0.05)
		case "F":
			m.sess.SetFlow(m.sess.Flow() + 0.05)
		case "+", "=":
			m.compression = math.Min(m.compression*2, config.MaxCompression)
		case "-", "_":
			m.compression = math.Max(m.compression/2, 1)
		case "g":
			m.channel = (m.channel + 1) % len(trendChannels)
			m.trend = m.trend[:0]
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			events := m.sess.Advance(m.compression / fps)
			m.events = append(m.events, events...)
			if len(m.events) > eventCapacity {
				m.events = m.events[len(m.events)-eventCapacity:]
			}
			m.trend = append(m.trend, trendChannels[m.channel].get(m.sess.Snapshot()))
			if len(m.trend) > historyCapacity {
				m.trend = m.trend[1:]
			}
		}
		return m, tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// View renders the control room panel.
func (m Model) View() string {
	s := m.sess.Snapshot()

	var left strings.Builder
	left.WriteString(sectionStyle.Render("POWER") + "\n")
	left.WriteString(powerRow("neutron", s.NeutronPower))
	left.WriteString(powerRow("thermal", s.ThermalPower))
	left.WriteString(powerRow("indicated", s.IndicatedPower))
	left.WriteString(row("rate", fmt.Sprintf("%+.3f %%/s", s.RatePctPerS)))
	left.WriteString(row("sur", fmt.Sprintf("%+.2f dpm", s.StartupRateDPM)))
	left.WriteString(row("period", formatPeriod(s.PeriodS)))
	left.WriteString(row("range", rangeName(s)))
	left.WriteString("\n" + sectionStyle.Render("REACTIVITY pcm") + "\n")
	left.WriteString(row("doppler", fmt.Sprintf("%+9.1f", s.Budget.DopplerPcm)))
	left.WriteString(row("moderator", fmt.Sprintf("%+9.1f", s.Budget.ModeratorPcm)))
	left.WriteString(row("boron", fmt.Sprintf("%+9.1f", s.Budget.BoronPcm)))
	left.WriteString(row("xenon", fmt.Sprintf("%+9.1f", s.Budget.XenonPcm)))
	left.WriteString(row("rods", fmt.Sprintf("%+9.1f", s.Budget.RodsPcm)))
	left.WriteString(row("net", fmt.Sprintf("%+9.1f", s.TotalPcm())))
	left.WriteString(row("keff", fmt.Sprintf("%.5f", s.Keff)))

	var right strings.Builder
	motion := "HOLD"
	if s.RodsMoving {
		motion = "MOVING"
	}
	if s.Tripped {
		motion = "TRIP"
	}
	right.WriteString(sectionStyle.Render("RODS") + dimStyle.Render("  "+motion) + "\n")
	for k := 0; k < rods.NumBanks; k++ {
		bank := rods.Bank(k)
		pos := s.RodPositions[k]
		marker := "  "
		if bank == m.selected {
			marker = selectedStyle.Render("> ")
		}
		right.WriteString(marker + fmt.Sprintf("%-2s %s %3.0f", bank,
			Meter(pos/m.plant.Rods.TravelSteps, 12), pos) + "\n")
	}
	right.WriteString("\n" + sectionStyle.Render("PRIMARY") + "\n")
	right.WriteString(row("tavg", fmt.Sprintf("%6.1f F", s.TavgF)))
	right.WriteString(row("thot", fmt.Sprintf("%6.1f F", s.THotF)))
	right.WriteString(row("tcold", fmt.Sprintf("%6.1f F", s.TColdF)))
	right.WriteString(row("fuel avg", fmt.Sprintf("%6.0f F", s.FuelTempF)))
	right.WriteString(row("fuel peak", fmt.Sprintf("%6.0f F", s.FuelCenterlineF)))
	right.WriteString(labelStyle.Render("flow") + Meter(s.FlowFraction, 12) +
		valueStyle.Render(fmt.Sprintf(" %3.0f%%", s.FlowFraction*100)) + "\n")
	right.WriteString(row("boron", fmt.Sprintf("%6.0f ppm", s.BoronPPM)))
	right.WriteString(row("xenon", fmt.Sprintf("%6.3f", s.XenonLevel)))

	var b strings.Builder
	status := runningStyle.Render("RUNNING")
	if !m.running {
		status = pausedStyle.Render("PAUSED")
	}
	b.WriteString(headerStyle.Render("PWR CORE") + "  " + status)
	if s.Tripped {
		b.WriteString("  " + trippedStyle.Render(fmt.Sprintf("RX TRIP %s from %.0f%%", s.TripCause, s.PreTripPower*100)))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  x%g  t=%s", m.compression, formatClock(s.Time))) + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(left.String()), panelStyle.Render(right.String())) + "\n")
	b.WriteString(annunciatorRow(s) + "\n")
	if len(m.trend) > 1 {
		chart := asciigraph.Plot(m.trend, asciigraph.Height(6), asciigraph.Width(64),
			asciigraph.Caption(trendChannels[m.channel].name))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	for _, ev := range m.events {
		b.WriteString(eventStyle.Render(fmt.Sprintf("%9.1fs  %s", ev.Time, ev.Name)) + "\n")
	}
	b.WriteString(helpStyle.Render("SP:Pause W/S/X:Rods Tab:Bank ↑↓:Jog T:Trip R:Reset b/B:Boron F/f:Flow +/-:Speed G:Trend ?:Help Q:Quit"))
	mainView := b.String()

	if m.showHelp {
		return `
╔═══════════════════════════════════════════╗
║            KEYBOARD SHORTCUTS             ║
╠═══════════════════════════════════════════╣
║  Space    - Pause/Resume                  ║
║  W / S    - Withdraw/insert in sequence   ║
║  X        - Stop all rod motion           ║
║  Tab      - Select a bank                 ║
║  Up/Down  - Jog the selected bank         ║
║  T        - Manual reactor trip           ║
║  R        - Reset the trip                ║
║  b / B    - Borate/dilute 10 ppm          ║
║  F / f    - Raise/lower RCS flow 5%       ║
║  + / -    - Double/halve time speed       ║
║  G        - Cycle the trend channel       ║
║  ?        - Toggle this help              ║
║  Q        - Quit                          ║
╚═══════════════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func powerRow(label string, frac float64) string {
	return labelStyle.Render(label) + PowerBar(frac, 20) +
		valueStyle.Render(fmt.Sprintf(" %6.2f%%", frac*100)) + "\n"
}

func annunciatorRow(s core.Snapshot) string {
	tiles := []struct {
		label string
		lit   bool
	}{
		{"RX TRIP", s.Tripped},
		{"OVERPOWER", s.OverpowerAlarm},
		{"HI RATE", s.HighRateAlarm},
		{"ROD BOTTOM", s.RodBottomAlarm},
		{"SEQUENCE", s.SequenceAlarm},
		{"FUEL TEMP", s.FuelTempAlarm},
	}
	parts := make([]string, 0, len(tiles))
	for _, t := range tiles {
		parts = append(parts, Annunciator(t.label, t.lit))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func rangeName(s core.Snapshot) string {
	switch {
	case s.PowerRangeValid:
		return "power"
	case s.IntermediateValid:
		return "intermediate"
	case s.SourceRangeValid:
		return "source"
	}
	return "none"
}

func formatPeriod(p float64) string {
	if math.IsInf(p, 0) {
		return "steady"
	}
	return fmt.Sprintf("%+.0f s", p)
}

func formatClock(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// RunLive starts the panel and blocks until the operator quits.
func RunLive(sess *sim.Session, plant *config.Plant, compression float64) error {
	p := tea.NewProgram(NewModel(sess, plant, compression), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
