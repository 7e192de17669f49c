// Package console is the assistant's terminal surface: styled status
// panels, markdown rendering of engine responses, and the blocking
// prompts the orchestration loop depends on.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	dangerPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("196"))
	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)
)

// Console bundles terminal input and output. Reader and writer are
// injectable for tests.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	renderer *glamour.TermRenderer
}

func New() *Console {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	return &Console{
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		renderer: renderer,
	}
}

// NewWith builds a console over explicit streams. The markdown
// renderer is skipped; Markdown falls back to plain text.
func NewWith(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.out, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.out, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (c *Console) Warning(format string, args ...any) {
	fmt.Fprintln(c.out, warningStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.out, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Step announces one step of a numbered sequence.
func (c *Console) Step(title, detail string, index, total int) {
	header := title
	if index > 0 && total > 0 {
		header = fmt.Sprintf("[%d/%d] %s", index, total, title)
	}
	fmt.Fprintln(c.out, stepStyle.Render(header))
	if detail != "" {
		fmt.Fprintln(c.out, detail)
	}
}

// Markdown renders engine responses. Rendering failures fall back to
// the raw text so a styling problem never hides a diagnosis.
func (c *Console) Markdown(text string) {
	if c.renderer != nil {
		if rendered, err := c.renderer.Render(text); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, text)
}

// Panel draws a bordered box around content, red-bordered when the
// content is dangerous.
func (c *Console) Panel(content string, dangerous bool) {
	style := panelStyle
	if dangerous {
		style = dangerPanelStyle
	}
	fmt.Fprintln(c.out, style.Render(content))
}

// Confirm asks a yes/no question. defaultYes controls what bare Enter
// means.
func (c *Console) Confirm(question string, defaultYes bool) bool {
	suffix := " [Y/n]: "
	if !defaultYes {
		suffix = " [y/N]: "
	}
	fmt.Fprint(c.out, question+suffix)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ConfirmCommand is the executor's confirmation gate. Dangerous
// commands get a red panel and a default-no prompt.
func (c *Console) ConfirmCommand(command, explanation string, dangerous bool) bool {
	content := "Command: " + command
	if explanation != "" {
		content += "\nPurpose: " + explanation
	}
	if dangerous {
		content += "\nWARNING: this command matches a known-dangerous pattern."
	}
	c.Panel(content, dangerous)
	return c.Confirm("Execute this command?", !dangerous)
}

// Choose presents numbered options and returns the selected index.
// An empty or invalid answer returns defaultIdx.
func (c *Console) Choose(question string, options []string, defaultIdx int) int {
	fmt.Fprintln(c.out, question)
	for i, opt := range options {
		fmt.Fprintf(c.out, "  %d. %s\n", i+1, opt)
	}
	fmt.Fprintf(c.out, "Choice [%d]: ", defaultIdx+1)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return defaultIdx
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(options) {
		return defaultIdx
	}
	return n - 1
}

// ReadLine reads one line of free text, trimmed.
func (c *Console) ReadLine(prompt string) string {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
