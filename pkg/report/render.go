package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orchestrate/pkg/dispatch"
	"github.com/go-go-golems/orchestrate/pkg/gate"
	"github.com/go-go-golems/orchestrate/pkg/state"
)

type Renderer struct {
	Theme Theme
}

func New(color bool) *Renderer {
	if color {
		return &Renderer{Theme: DefaultTheme()}
	}
	return &Renderer{Theme: PlainTheme()}
}

func (r *Renderer) statusStyle(status string) lipgloss.Style {
	switch status {
	case string(dispatch.StatusSucceeded), string(gate.StatusReady):
		return r.Theme.OK
	case string(dispatch.StatusFailed), string(gate.StatusTimedOut), string(gate.StatusProbeError):
		return r.Theme.Failed
	case string(dispatch.StatusSkipped):
		return r.Theme.Skipped
	case string(dispatch.StatusPlanned):
		return r.Theme.Planned
	default:
		return r.Theme.Muted
	}
}

// Dispatch writes one line per service: name, status, duration and command.
func (r *Renderer) Dispatch(w io.Writer, res dispatch.Result) error {
	header := fmt.Sprintf("%s %s (%s)", res.Verb, res.Target, res.Backend)
	if res.DryRun {
		header += " [dry-run]"
	}
	if _, err := fmt.Fprintln(w, r.Theme.Title.Render(header)); err != nil {
		return err
	}

	width := nameWidth(res.Services)
	for _, s := range res.Services {
		line := fmt.Sprintf("  %-*s %s", width, s.Name, r.statusStyle(string(s.Status)).Render(fmt.Sprintf("%-9s", s.Status)))
		if s.Duration > 0 {
			line += " " + r.Theme.Muted.Render(s.Duration.Round(time.Millisecond).String())
		}
		line += "  " + r.Theme.Muted.Render(s.Command.String())
		if s.Error != "" {
			line += "\n  " + strings.Repeat(" ", width) + " " + r.Theme.Failed.Render(s.Error)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) Gate(w io.Writer, job string, res gate.Result) error {
	line := fmt.Sprintf("%s %s after %d round(s), %s", job,
		r.statusStyle(string(res.Status)).Render(string(res.Status)), res.Rounds, res.Elapsed.Round(time.Millisecond))
	switch res.Status {
	case gate.StatusTimedOut:
		line += "; pending: " + r.Theme.Pending.Render(strings.Join(res.Pending, ", "))
	case gate.StatusProbeError:
		line += fmt.Sprintf("; %s: %v", res.Service, res.Err)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// State renders a saved state file for `status`.
func (r *Renderer) State(w io.Writer, st *state.State) error {
	if st.LastDispatch == nil && st.LastGate == nil {
		_, err := fmt.Fprintln(w, r.Theme.Muted.Render("no runs recorded"))
		return err
	}
	if d := st.LastDispatch; d != nil {
		ok := string(dispatch.StatusSucceeded)
		if !d.OK {
			ok = string(dispatch.StatusFailed)
		}
		header := fmt.Sprintf("last dispatch: %s %s (%s) %s at %s", d.Verb, d.Target, d.Backend,
			r.statusStyle(ok).Render(ok), d.FinishedAt.Format(time.RFC3339))
		if _, err := fmt.Fprintln(w, r.Theme.Title.Render(header)); err != nil {
			return err
		}
		width := 0
		for _, s := range d.Services {
			width = max(width, len(s.Name))
		}
		for _, s := range d.Services {
			line := fmt.Sprintf("  %-*s %s", width, s.Name, r.statusStyle(s.Status).Render(s.Status))
			if s.Error != "" {
				line += "  " + r.Theme.Failed.Render(s.Error)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	if g := st.LastGate; g != nil {
		line := fmt.Sprintf("last gate: %s %s after %d round(s) (exit %d)", g.Job, r.statusStyle(g.Status).Render(g.Status), g.Rounds, g.ExitCode)
		if len(g.Pending) > 0 {
			line += "; pending: " + r.Theme.Pending.Render(strings.Join(g.Pending, ", "))
		}
		if g.Error != "" {
			line += "; " + g.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func nameWidth(services []dispatch.ServiceStatus) int {
	w := 0
	for _, s := range services {
		w = max(w, len(s.Name))
	}
	return w
}
