package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/humblenginr/site_publisher/dag"
	"github.com/humblenginr/site_publisher/pipeline"
	"github.com/humblenginr/site_publisher/publish"
)

var (
	successColor = lipgloss.Color("#87AF87")
	errorColor   = lipgloss.Color("#AF5F5F")
	subtleColor  = lipgloss.Color("#666666")

	successStyle = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
)

// renderReport formats a pipeline report for the terminal.
func renderReport(r *pipeline.Report) string {
	var b strings.Builder

	switch r.Status {
	case dag.StatusNothingToDo:
		b.WriteString(successStyle.Render("✓ nothing to do"))
	case dag.StatusSucceeded:
		b.WriteString(successStyle.Render("✓ succeeded"))
	default:
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ failed at stage %s", r.Stage)))
		if r.Err != nil {
			b.WriteString(": " + reason(r))
		}
	}
	b.WriteString("  " + subtleStyle.Render("run "+r.RunID) + "\n")

	if r.Tasks != nil {
		for _, rec := range r.Tasks.Records {
			line := fmt.Sprintf("  %-10s %s", rec.State, taskName(rec.ID))
			if rec.Duration > 0 {
				line += subtleStyle.Render(" (" + rec.Duration.Round(time.Millisecond).String() + ")")
			}
			b.WriteString(line + "\n")
		}
	}
	if r.Publish != nil {
		b.WriteString(renderPublish(r.Publish))
	}
	return b.String()
}

func renderPublish(p *publish.Report) string {
	var b strings.Builder
	verb := "uploaded"
	if p.DryRun {
		verb = "would upload"
	}
	fmt.Fprintf(&b, "  %s %d (%s), deleted %d, unchanged %d\n",
		verb, len(p.Uploaded), humanize.Bytes(uint64(p.Bytes)), len(p.Deleted), len(p.Skipped))
	if p.DryRun {
		for _, path := range p.Uploaded {
			b.WriteString(subtleStyle.Render("    + "+path) + "\n")
		}
		for _, path := range p.Deleted {
			b.WriteString(subtleStyle.Render("    - "+path) + "\n")
		}
	}
	for _, f := range p.Failures {
		b.WriteString(errorStyle.Render("    ✗ ") + f.Error() + "\n")
	}
	return b.String()
}

// reason prefers the root-cause task error over the wrapped chain.
func reason(r *pipeline.Report) string {
	if r.Tasks != nil {
		if rc := r.Tasks.RootCause(); rc != nil && rc.Err != nil {
			return rc.Err.Error()
		}
	}
	return r.Err.Error()
}

// taskName drops the parameter key from a task ID.
func taskName(id string) string {
	if i := strings.IndexByte(id, ':'); i > 0 {
		return id[:i]
	}
	return id
}
