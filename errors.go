package htmledit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedCommand is returned when a command is part of the grammar
// but has no execution.
var ErrUnsupportedCommand = errors.New("unsupported command")

// GrammarError reports a command string that does not follow the pipeline
// grammar.
type GrammarError struct {
	Input    string
	Offset   int // byte offset into Input
	Expected string
}

func (e *GrammarError) Error() string {
	found := "end of input"
	if e.Offset < len(e.Input) {
		rest := e.Input[e.Offset:]
		if len(rest) > 20 {
			rest = rest[:20] + "..."
		}
		found = fmt.Sprintf("%q", rest)
	}
	return fmt.Sprintf("syntax error at offset %d: expected %s, found %s", e.Offset, e.Expected, found)
}

// CommandError is a failure of the command at position Index of a
// pipeline. Enclosing pipelines wrap it again with their own position.
type CommandError struct {
	Index   int
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Path returns the command positions from the outermost pipeline down to
// the failing command.
func (e *CommandError) Path() []int {
	var path []int
	var err error = e
	for {
		var ce *CommandError
		if !errors.As(err, &ce) {
			return path
		}
		path = append(path, ce.Index)
		err = ce.Err
	}
}

// PathString formats Path as 1/0/2.
func (e *CommandError) PathString() string {
	parts := make([]string, 0, 4)
	for _, i := range e.Path() {
		parts = append(parts, fmt.Sprint(i))
	}
	return strings.Join(parts, "/")
}

func wrapCommand(i int, name string, err error) error {
	return &CommandError{Index: i, Command: name, Err: err}
}
