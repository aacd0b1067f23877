package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/coursetools/courseup/internal/model"
)

// View renders the current state of the run.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("courseup • %s", m.title)))

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Capabilities"))
		sections = append(sections, m.renderCapabilities())
	}

	sections = append(sections, summaryStyle.Render(m.renderSummary()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCapabilities() string {
	var lines []string
	for _, id := range m.order {
		res := m.results[id]
		icon := m.statusIcon(res.Outcome)
		line := fmt.Sprintf(" %s %s", icon, m.names[id])
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s — %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	if m.cancelled {
		return failureStyle.Render("Cancelled")
	}
	if !m.finished {
		return fmt.Sprintf("%d/%d capabilities processed", m.completed, m.total)
	}

	var already, newly, failed, skipped int
	for _, res := range m.results {
		switch res.Outcome {
		case model.OutcomeAlreadySatisfied:
			already++
		case model.OutcomeNewlySatisfied:
			newly++
		case model.OutcomeFailed:
			failed++
		case model.OutcomeSkipped:
			skipped++
		}
	}

	line := fmt.Sprintf("%d satisfied, %d installed, %d failed, %d skipped", already, newly, failed, skipped)
	if failed > 0 {
		return failureStyle.Render(line)
	}
	return successStyle.Render(line)
}

func (m Model) statusIcon(outcome string) string {
	switch outcome {
	case model.OutcomeAlreadySatisfied:
		return successStyle.Render("✓")
	case model.OutcomeNewlySatisfied:
		return successStyle.Render("＋")
	case model.OutcomeRunning:
		return m.spin.View()
	case model.OutcomeFailed:
		return failureStyle.Render("✗")
	case model.OutcomeSkipped:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}
