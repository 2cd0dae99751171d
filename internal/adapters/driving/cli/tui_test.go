package cli

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProgram struct {
	err error
	run func()
}

func (p *fakeProgram) Run() (tea.Model, error) {
	if p.run != nil {
		p.run()
	}
	return nil, p.err
}

// stubProgram replaces the bubbletea program for the duration of a test.
func stubProgram(t *testing.T, p *fakeProgram) *tea.Model {
	t.Helper()
	var got tea.Model
	original := newProgram
	newProgram = func(_ context.Context, model tea.Model) program {
		got = model
		return p
	}
	t.Cleanup(func() { newProgram = original })
	return &got
}

func TestTUICmd_Registered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "tui" {
			found = true
		}
	}
	assert.True(t, found)
	assert.Contains(t, tuiCmd.Long, "Open the selected file")
}

func TestTUICmd_RunsProgram(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	model := stubProgram(t, &fakeProgram{})

	_, err := execute([]string{"tui"}, nil)

	require.NoError(t, err)
	assert.NotNil(t, *model)
}

func TestTUICmd_SchedulerRunsAlongside(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	s := &fakeScheduler{}
	scheduler = s
	stubProgram(t, &fakeProgram{})

	_, err := execute([]string{"tui"}, nil)

	require.NoError(t, err)
	_, stopped := s.state()
	assert.True(t, stopped)
}

func TestTUICmd_ProgramError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	stubProgram(t, &fakeProgram{err: errors.New("no tty")})

	_, err := execute([]string{"tui"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error: no tty")
}

func TestTUICmd_RecoversPanic(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	stubProgram(t, &fakeProgram{run: func() { panic("render bug") }})

	_, err := execute([]string{"tui"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "render bug")
}

func TestTUICmd_RequiresSearchService(t *testing.T) {
	_, err := execute([]string{"tui"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}
