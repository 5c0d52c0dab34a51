package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/engine"
)

// stdioPrompter asks questions on a terminal. Answers are read line by line;
// an empty line accepts the default.
type stdioPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdioPrompter(in io.Reader, out io.Writer) *stdioPrompter {
	return &stdioPrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask poses one question. EOF on stdin surfaces as an error, which the engine
// treats as an abort.
func (p *stdioPrompter) Ask(ctx context.Context, q engine.Question) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprintf(p.out, "%s", q.Message)
	if len(q.Choices) > 0 {
		fmt.Fprintf(p.out, " [%s]", strings.Join(q.Choices, ", "))
	}
	if q.Default != nil {
		fmt.Fprintf(p.out, " (%v)", q.Default)
	}
	fmt.Fprint(p.out, ": ")

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("input closed: %w", err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return q.Default, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question.
func (p *stdioPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", message, hint)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("input closed: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
