package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/model"
)

func testManifest() *config.Manifest {
	return &config.Manifest{
		Name: "Digital Studies 101",
		Capabilities: []config.Capability{
			{ID: "pandas", Name: "Pandas", Type: "package", Enabled: true},
			{ID: "nltk", Type: "package", Enabled: true},
		},
	}
}

func result(id, outcome string) ResultMsg {
	return ResultMsg{Result: model.ProvisioningResult{CapabilityID: id, Outcome: outcome}}
}

func TestNewModelSeedsPendingEntries(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())
	assert.Equal(t, 2, m.TotalCapabilities())
	assert.Equal(t, 0, m.CompletedCapabilities())
	assert.False(t, m.IsFinished())

	view := m.View()
	assert.Contains(t, view, "Digital Studies 101")
	assert.Contains(t, view, "Pandas")
	assert.Contains(t, view, "nltk")
}

func TestUpdateCountsTerminalResultsOnce(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())

	next, _ := m.Update(result("pandas", model.OutcomeRunning))
	m = next.(Model)
	assert.Equal(t, 0, m.CompletedCapabilities())

	next, _ = m.Update(result("pandas", model.OutcomeNewlySatisfied))
	m = next.(Model)
	assert.Equal(t, 1, m.CompletedCapabilities())

	// A repeated terminal result does not double-count.
	next, _ = m.Update(result("pandas", model.OutcomeNewlySatisfied))
	m = next.(Model)
	assert.Equal(t, 1, m.CompletedCapabilities())
}

func TestUpdateDoneQuits(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())
	next, cmd := m.Update(DoneMsg{})
	m = next.(Model)

	assert.True(t, m.IsFinished())
	require.NotNil(t, cmd)
}

func TestUpdateCtrlCCancels(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)

	assert.True(t, m.IsFinished())
	assert.True(t, m.Cancelled())
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Cancelled")
}

func TestUpdateTracksUnknownCapability(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())
	next, _ := m.Update(result("surprise", model.OutcomeFailed))
	m = next.(Model)

	assert.Equal(t, 3, m.TotalCapabilities())
	assert.Equal(t, 1, m.CompletedCapabilities())
}

func TestViewSummaryAfterFinish(t *testing.T) {
	t.Parallel()

	m := NewModel(testManifest())

	next, _ := m.Update(result("pandas", model.OutcomeAlreadySatisfied))
	m = next.(Model)
	next, _ = m.Update(result("nltk", model.OutcomeNewlySatisfied))
	m = next.(Model)
	next, _ = m.Update(DoneMsg{})
	m = next.(Model)

	assert.Contains(t, m.View(), "1 satisfied, 1 installed, 0 failed, 0 skipped")
}
