package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/openmotion/epos"
	"github.com/spf13/cobra"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live telemetry dashboard",
	Long: `Poll the drive and render its state and telemetry as a full screen
dashboard. The drive answers one transaction at a time, so the refresh
interval bounds the serial traffic:

  epos-cli monitor --interval 250ms

Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 500*time.Millisecond, "Refresh interval")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	drive, closer, err := newDrive()
	if err != nil {
		return err
	}
	defer closer()

	p := tea.NewProgram(initialMonitorModel(drive, monitorInterval), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

// telemetry is one polled snapshot, read in a single burst of transactions
// so the values line up.
type telemetry struct {
	status      uint16
	mode        epos.Mode
	faulted     bool
	position    int64
	velocity    int64
	demand      int64
	current     int64
	average     int64
	voltage     float64
	temperature int64
}

type telemetryMsg struct {
	data telemetry
	err  error
}

type monitorTickMsg time.Time

type monitorModel struct {
	drive    *epos.Drive
	interval time.Duration

	data     telemetry
	err      error
	polled   bool
	updated  time.Time
	polls    int
	failures int

	width    int
	height   int
	quitting bool
}

func initialMonitorModel(drive *epos.Drive, interval time.Duration) monitorModel {
	return monitorModel{
		drive:    drive,
		interval: interval,
		width:    80,
		height:   24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return pollCmd(m.drive)
}

func monitorTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// pollCmd reads one snapshot off the drive. It runs on a command goroutine;
// the transport mutex keeps the individual transactions whole.
func pollCmd(drive *epos.Drive) tea.Cmd {
	return func() tea.Msg {
		data, err := pollTelemetry(drive)
		return telemetryMsg{data: data, err: err}
	}
}

func pollTelemetry(drive *epos.Drive) (telemetry, error) {
	var t telemetry
	var err error
	if t.status, err = drive.Statusword(); err != nil {
		return t, err
	}
	if t.mode, err = drive.Mode(); err != nil {
		return t, err
	}
	if t.faulted, err = drive.Faulted(); err != nil {
		return t, err
	}
	if t.position, err = drive.ActualPosition(); err != nil {
		return t, err
	}
	if t.velocity, err = drive.ActualVelocity(); err != nil {
		return t, err
	}
	if t.demand, err = drive.VelocityDemand(); err != nil {
		return t, err
	}
	if t.current, err = drive.ActualCurrent(); err != nil {
		return t, err
	}
	if t.average, err = drive.AverageCurrent(); err != nil {
		return t, err
	}
	if t.voltage, err = drive.Voltage(); err != nil {
		return t, err
	}
	if t.temperature, err = drive.Temperature(); err != nil {
		return t, err
	}
	return t, nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		return m, pollCmd(m.drive)

	case telemetryMsg:
		m.polls++
		if msg.err != nil {
			m.failures++
			m.err = msg.err
		} else {
			m.data = msg.data
			m.err = nil
			m.polled = true
			m.updated = time.Now()
		}
		return m, monitorTickCmd(m.interval)
	}

	return m, nil
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Width(12)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder

	// Header
	s.WriteString(titleStyle.Render("EPOS MONITOR"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s node %d | q=quit", address, nodeID)))
	s.WriteString("\n\n")

	if !m.polled {
		if m.err != nil {
			s.WriteString(errorStyle.Render(m.err.Error()))
		} else {
			s.WriteString(headerStyle.Render("Waiting for the first snapshot..."))
		}
		s.WriteString("\n")
		return s.String()
	}

	row := func(label, value string) string {
		return labelStyle.Render(label) + " " + valueStyle.Render(value) + "\n"
	}

	// Motion panel
	var motion strings.Builder
	motion.WriteString(row("Mode", m.data.mode.String()))
	motion.WriteString(row("Position", fmt.Sprintf("%d counts", m.data.position)))
	motion.WriteString(row("Velocity", fmt.Sprintf("%d rpm", m.data.velocity)))
	motion.WriteString(row("Demand", fmt.Sprintf("%d rpm", m.data.demand)))
	motion.WriteString(labelStyle.Render("Status") + " " + valueStyle.Render(fmt.Sprintf("0x%04X", m.data.status)))
	if m.data.faulted {
		motion.WriteString(" " + errorStyle.Render("FAULT"))
	}

	// Health panel
	var health strings.Builder
	health.WriteString(row("Current", fmt.Sprintf("%d mA", m.data.current)))
	health.WriteString(row("Average", fmt.Sprintf("%d mA", m.data.average)))
	health.WriteString(row("Voltage", fmt.Sprintf("%.1f V", m.data.voltage)))
	health.WriteString(row("Temperature", fmt.Sprintf("%.1f degC", float64(m.data.temperature)/10)))
	health.WriteString(labelStyle.Render("Updated") + " " + valueStyle.Render(m.updated.Format("15:04:05")))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(motion.String()),
		" ",
		boxStyle.Render(health.String()),
	))
	s.WriteString("\n")

	// Footer
	footer := fmt.Sprintf("%d polls, %d failed", m.polls, m.failures)
	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(headerStyle.Render(footer))
	s.WriteString("\n")

	return s.String()
}
