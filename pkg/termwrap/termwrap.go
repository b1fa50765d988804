// Package termwrap wraps text to the width of the terminal.
package termwrap

import (
	"os"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

type TermWrap struct {
	Width int
}

// New sizes the wrapper to stdout, or to defaultWidth when stdout isn't a
// terminal.
func New(defaultWidth int) *TermWrap {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = defaultWidth
	}
	return &TermWrap{Width: width}
}

func (tw *TermWrap) Paragraph(content string) string {
	return wordwrap.WrapString(content, uint(tw.Width))
}

// Indent wraps content narrower by the length of prefix and puts prefix in
// front of every line.
func (tw *TermWrap) Indent(prefix, content string) string {
	width := tw.Width - len(prefix)
	if width < 20 {
		width = 20
	}

	lines := strings.Split(wordwrap.WrapString(content, uint(width)), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
