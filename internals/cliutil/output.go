package cliutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/cogniolab/hybrid/internals/env"
	"github.com/cogniolab/hybrid/internals/guardrail"
	"github.com/cogniolab/hybrid/internals/orchestrator"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/term"
)

// Styles applied to terminal output. Plain text when stdout is not a TTY so
// piped output stays machine-friendly.
var (
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleOK      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleBlocked = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleFailed  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	styleStage   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

var stdoutIsTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func render(style lipgloss.Style, text string) string {
	if !stdoutIsTTY {
		return text
	}
	return style.Render(text)
}

// PrintRunResult writes a submission outcome: the guardrail verdict for
// blocked runs, the single payload for single-platform runs, and the three
// stage payloads in pipeline order for hybrid runs.
func PrintRunResult(result *orchestrator.RunResult) {
	if result.Status == orchestrator.RunBlocked {
		fmt.Printf("%s %s\n", render(styleBlocked, "blocked"), result.Message)
		if result.Guardrail != "" {
			fmt.Printf("%s %s\n", render(styleLabel, "guardrail:"), result.Guardrail)
		}
		return
	}

	fmt.Printf("%s %s\n", render(styleLabel, "task:"), result.TaskID)
	fmt.Printf("%s %s\n", render(styleLabel, "status:"), render(styleOK, string(result.Status)))
	fmt.Printf("%s %s\n", render(styleLabel, "platform:"), result.Backend)

	if len(result.Stages) > 0 {
		for _, name := range []string{orchestrator.StagePlanning, orchestrator.StageExecution, orchestrator.StageVerification} {
			stage, ok := result.Stages[name]
			if !ok {
				continue
			}
			fmt.Printf("\n%s %s\n", render(styleStage, name), render(styleLabel, "("+stage.Backend.String()+")"))
			if stage.Output != nil {
				fmt.Println(indent(stage.Output.Output))
			}
		}
		return
	}

	if result.Output != nil {
		fmt.Println(indent(result.Output.Output))
	}
}

// PrintSnapshot writes the recorded state of one task.
func PrintSnapshot(snap *task.Snapshot) {
	fmt.Printf("%s %s\n", render(styleLabel, "task:"), snap.ID)
	fmt.Printf("%s %s\n", render(styleLabel, "status:"), renderStatus(snap.Status))
	fmt.Printf("%s %s\n", render(styleLabel, "type:"), snap.Type)
	if snap.AssignedBackend != "" {
		fmt.Printf("%s %s\n", render(styleLabel, "platform:"), snap.AssignedBackend)
	}
	if snap.Error != "" {
		fmt.Printf("%s %s\n", render(styleLabel, "error:"), render(styleFailed, snap.Error))
	}
}

// PrintHistory writes one line per recorded task, oldest first.
func PrintHistory(tasks []task.Snapshot) {
	if len(tasks) == 0 {
		fmt.Println("no tasks recorded")
		return
	}
	for _, snap := range tasks {
		fmt.Printf("%s  %-11s  %-16s  %s\n", snap.ID, renderStatus(snap.Status), snap.Type, oneLine(snap.Description))
	}
}

// PrintGuardrails writes one line per registered guardrail.
func PrintGuardrails(rails []guardrail.Info) {
	if len(rails) == 0 {
		fmt.Println("no guardrails registered")
		return
	}
	for _, info := range rails {
		line := fmt.Sprintf("%s  %-14s  %s", info.Name, info.Kind, info.Condition)
		if info.Approver != "" {
			line += "  " + render(styleLabel, "approver: "+info.Approver)
		}
		fmt.Println(line)
	}
}

// DaemonAddress returns the daemon base URL, as a clickable hyperlink on
// terminals that support them.
func DaemonAddress() string {
	url := env.Get().BASE_URL
	return term.ClickableLink(url, url)
}

func renderStatus(status task.Status) string {
	switch status {
	case task.StatusCompleted:
		return render(styleOK, string(status))
	case task.StatusFailed:
		return render(styleFailed, string(status))
	default:
		return string(status)
	}
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func oneLine(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}
