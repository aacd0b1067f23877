package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/model"
)

// ResultMsg carries a provisioning state change for one capability.
type ResultMsg struct {
	Result model.ProvisioningResult
}

// DoneMsg signals that the run has finished and the final report is in.
type DoneMsg struct{}

// Model contains the Bubbletea state for the provisioning progress view.
type Model struct {
	title     string
	order     []string
	names     map[string]string
	results   map[string]model.ProvisioningResult
	spin      spinner.Model
	total     int
	completed int
	finished  bool
	cancelled bool
}

// NewModel constructs the progress model for a manifest's capability list.
func NewModel(manifest *config.Manifest) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	m := Model{
		title:   "Provisioning",
		names:   make(map[string]string),
		results: make(map[string]model.ProvisioningResult),
		spin:    s,
	}

	if manifest != nil {
		if manifest.Name != "" {
			m.title = manifest.Name
		}
		for _, capability := range manifest.Capabilities {
			m.order = append(m.order, capability.ID)
			m.names[capability.ID] = capability.DisplayName()
			m.results[capability.ID] = model.ProvisioningResult{
				CapabilityID: capability.ID,
				Outcome:      model.OutcomePending,
			}
			m.total++
		}
	}

	return m
}

// Init starts the spinner tick loop.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// TotalCapabilities returns the number of capabilities tracked by the model.
func (m Model) TotalCapabilities() int {
	return m.total
}

// CompletedCapabilities returns the number of capabilities with a terminal outcome.
func (m Model) CompletedCapabilities() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the run with Ctrl-C.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) ensureCapability(id string) {
	if id == "" {
		return
	}
	if _, exists := m.results[id]; !exists {
		m.order = append(m.order, id)
		m.names[id] = id
		m.results[id] = model.ProvisioningResult{CapabilityID: id, Outcome: model.OutcomePending}
		m.total++
	}
}
