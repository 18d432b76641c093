// Package tui is the interactive submission form: a small bubbletea program
// that collects a task and hands it to the daemon through the SDK.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cogniolab/hybrid/internals/cliutil"
	"github.com/cogniolab/hybrid/internals/schemas"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/timeouts"
	"github.com/cogniolab/hybrid/sdk"
)

type submitModel struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
}

const (
	fieldDescription = iota
	fieldType
	fieldSystemAccess
	fieldMultiStep
)

func Run(client *sdk.Client) error {
	request, submitted, err := runSubmitForm()
	if err != nil {
		return err
	}
	if !submitted {
		return nil
	}

	if err := cliutil.EnsureDaemonRunning(client); err != nil {
		return err
	}

	// Hybrid runs chain three backend calls, so allow three task budgets.
	ctx, cancel := context.WithTimeout(context.Background(), 3*timeouts.DefaultTask+timeouts.SecondDefault)
	defer cancel()
	result, err := client.SubmitTask(ctx, request)
	if err != nil {
		return err
	}

	cliutil.PrintRunResult(result)
	return nil
}

func runSubmitForm() (schemas.TaskSubmitRequest, bool, error) {
	model := newSubmitModel()
	program := tea.NewProgram(model)
	finished, err := program.Run()
	if err != nil {
		return schemas.TaskSubmitRequest{}, false, err
	}
	finalModel, ok := finished.(submitModel)
	if !ok {
		return schemas.TaskSubmitRequest{}, false, nil
	}
	if finalModel.cancelled || !finalModel.submitted {
		return schemas.TaskSubmitRequest{}, false, nil
	}

	description := strings.TrimSpace(finalModel.inputs[fieldDescription].Value())
	if description == "" {
		return schemas.TaskSubmitRequest{}, false, errors.New("description is required")
	}

	request := schemas.TaskSubmitRequest{
		Description:          description,
		Type:                 task.Type(strings.TrimSpace(finalModel.inputs[fieldType].Value())),
		RequiresSystemAccess: parseYes(finalModel.inputs[fieldSystemAccess].Value()),
		RequiresMultiStep:    parseYes(finalModel.inputs[fieldMultiStep].Value()),
	}
	if request.Type == "" {
		request.Type = task.TypeConversation
	}
	return request, true, nil
}

func parseYes(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true":
		return true
	default:
		return false
	}
}

func newSubmitModel() submitModel {
	description := textinput.New()
	description.Prompt = "Description: "

	taskType := textinput.New()
	taskType.Prompt = "Type (default conversation): "

	systemAccess := textinput.New()
	systemAccess.Prompt = "System access (y/N): "

	multiStep := textinput.New()
	multiStep.Prompt = "Multi-step (y/N): "

	inputs := []textinput.Model{description, taskType, systemAccess, multiStep}
	inputs[0].Focus()
	return submitModel{inputs: inputs}
}

func (m submitModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m submitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab":
			return m.moveFocus(1)
		case "shift+tab":
			return m.moveFocus(-1)
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.submitted = true
				return m, tea.Quit
			}
			return m.moveFocus(1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m submitModel) View() string {
	lines := []string{"Submit task", ""}
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, input.View()))
	}
	lines = append(lines, "", "Tab: next field  Enter: submit  Ctrl+C: cancel")
	return strings.Join(lines, "\n")
}

func (m submitModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}
