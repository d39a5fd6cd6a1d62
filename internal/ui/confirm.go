package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
	// AssumeYes answers every prompt with yes without reading input.
	AssumeYes bool
}

// NewPrompter prompts on stdin/stderr.
func NewPrompter(assumeYes bool) *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr, AssumeYes: assumeYes}
}

// Confirm prompts the user with a yes/no question. Returns true for yes.
func (p *Prompter) Confirm(prompt string) bool {
	if p.AssumeYes {
		fmt.Fprintln(p.Out, StyleMeta.Render(prompt+" [auto-approved]"))
		return true
	}
	fmt.Fprintf(p.Out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line, _ := bufio.NewReader(p.In).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// Approve has the shape of a wallet approval callback. A cancelled context
// counts as a denial.
func (p *Prompter) Approve(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	return p.Confirm(prompt)
}
