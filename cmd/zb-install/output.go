package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/zymbit-applications/zb-install/internal/binary"
	"github.com/zymbit-applications/zb-install/internal/platform"
	"github.com/zymbit-applications/zb-install/internal/release"
)

var (
	statusColor     = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed, color.Bold)
	warnColor       = color.New(color.FgYellow)
	successColor    = color.New(color.FgGreen)
	identifierColor = color.New(color.FgBlue)
)

const notesWidth = 80

// output renders user-facing text. Status lines and results go to stdout,
// errors and warnings to stderr.
type output struct {
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
	renderer    *lipgloss.Renderer
}

func newOutput(stdout, stderr io.Writer, interactive bool) *output {
	return &output{
		stdout:      stdout,
		stderr:      stderr,
		interactive: interactive,
		renderer:    lipgloss.NewRenderer(stdout),
	}
}

func (o *output) Error(err error) {
	fmt.Fprintf(o.stderr, "%s %v\n", errorColor.Sprint("Error"), err)
}

func (o *output) Warn(msg string) {
	warnColor.Fprint(o.stderr, msg)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(o.stderr)
	}
}

// Summary prints the detected system in a bordered panel.
func (o *output) Summary(info *platform.Info) {
	label := o.renderer.NewStyle().Bold(true).Width(18)
	var lines []string
	for _, row := range info.Rows() {
		lines = append(lines, label.Render(row[0]+":")+" "+row[1])
	}
	box := o.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("6")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	fmt.Fprintln(o.stdout, box)
}

// Spin shows msg with a spinner on a terminal, or as a plain status line
// otherwise. The returned func stops the spinner.
func (o *output) Spin(msg string) func() {
	if !o.interactive {
		statusColor.Fprintln(o.stdout, msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(o.stderr), spinner.WithColor("cyan"))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}

// Notes renders the release notes as markdown.
func (o *output) Notes(rel release.Release) {
	if strings.TrimSpace(rel.Body) == "" {
		fmt.Fprintf(o.stdout, "%s has no release notes.\n", identifierColor.Sprint(rel.TagName))
		return
	}

	md := "# " + rel.Title() + "\n\n" + rel.Body
	style := "notty"
	if o.interactive {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(notesWidth))
	if err == nil {
		if rendered, err := r.Render(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprintln(o.stdout, md)
}

func (o *output) Replacing(tool, version, path string) {
	fmt.Fprintf(o.stdout, "Replacing %s %s at %s.\n", tool, identifierColor.Sprint(version), path)
}

func (o *output) Installed(res *binary.Result, tool string) {
	var checks []string
	for _, m := range res.Verified {
		if m != binary.VerificationNone {
			checks = append(checks, m.String())
		}
	}
	if len(checks) > 0 {
		fmt.Fprintf(o.stdout, "Verified %s with %s.\n", identifierColor.Sprint(res.Asset), strings.Join(checks, ", "))
	}
	successColor.Fprintf(o.stdout, "Installed %s. Run '%s --help' for more options.\n", tool, tool)
}
