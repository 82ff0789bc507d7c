package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mvermeulen/analemma/pkg/sky"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags observerFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Browse the computed year interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}
			result, err := runner.Compute(cmd.Context(), flags.options(cmd))
			if err != nil {
				return err
			}

			model := newDayListModel(result.Horizon, pipelineObserver(flags))
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd, c.config)
	c.requireObserver(cmd)

	return cmd
}

// dayListModel is the bubbletea model for browsing the computed year.
type dayListModel struct {
	days     []sky.HorizonPosition
	observer sky.Observer
	cursor   int
	height   int
	offset   int
}

func newDayListModel(days []sky.HorizonPosition, observer sky.Observer) dayListModel {
	return dayListModel{
		days:     days,
		observer: observer,
		height:   15,
	}
}

func (m dayListModel) Init() tea.Cmd {
	return nil
}

func (m dayListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.days)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "pgup":
			m.cursor -= m.height
			if m.cursor < 0 {
				m.cursor = 0
			}
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		case "pgdown":
			m.cursor += m.height
			if m.cursor > len(m.days)-1 {
				m.cursor = len(m.days) - 1
			}
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 10
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m dayListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Computed Year"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn jump  q quit"))
	b.WriteString("\n\n")

	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %-8s %9s %9s %8s %7s", "date", "altitude", "azimuth", "decl", "eot")))
	b.WriteString("\n")

	end := m.offset + m.height
	if end > len(m.days) {
		end = len(m.days)
	}
	for i := m.offset; i < end; i++ {
		d := m.days[i]

		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		az := fmt.Sprintf("%8.2f°", d.Azimuth)
		if !d.AzimuthDefined {
			az = "   zenith"
		}
		row := fmt.Sprintf("%-8s %8.2f° %s %7.2f° %6.1fm",
			d.Date.Format("Jan 2"), d.Altitude, az, d.Declination, d.EquationOfTime)
		b.WriteString(cursor + style.Render(row))
		b.WriteString("\n")
	}

	if m.cursor < len(m.days) {
		d := m.days[m.cursor]
		b.WriteString("\n")
		h, min := m.observer.SolarNoon(d.EquationOfTime)
		detail := fmt.Sprintf("solar noon %02d:%02d", h, min)
		if rise, set, ok := m.observer.SunriseSunsetHourAngle(d.Declination); ok {
			// Hour angles convert to clock hours at 15° per hour.
			dayLength := (set - rise) / 15
			detail += fmt.Sprintf("  ·  %.1fh of daylight", dayLength)
		} else if d.Declination*m.observer.Latitude > 0 {
			detail += "  ·  polar day"
		} else {
			detail += "  ·  polar night"
		}
		b.WriteString(listDimStyle.Render("  " + detail))
		b.WriteString("\n")
	}

	return b.String()
}
