package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LineStepper asks for each step on a line oriented console.
type LineStepper struct {
	input  *bufio.Reader
	output io.Writer
}

// NewLineStepper creates a stepper reading commands from input, and
// writing machine state and prompts to output.
func NewLineStepper(input io.Reader, output io.Writer) *LineStepper {
	return &LineStepper{
		input:  bufio.NewReader(input),
		output: output,
	}
}

// Next shows the machine state, then reads a command: an empty line or
// 'n' steps, 'q' or end of input stops. Anything else is rejected and
// the prompt repeated.
func (ls *LineStepper) Next(state string) (ok bool, err error) {
	_, err = fmt.Fprint(ls.output, state)
	if err != nil {
		return
	}

	for {
		_, err = fmt.Fprint(ls.output, "[n]ext, [q]uit: ")
		if err != nil {
			return
		}

		var line string
		line, err = ls.input.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return
		}
		eof := err != nil
		err = nil

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "n", "next":
			if eof && len(line) == 0 {
				return
			}
			return true, nil
		case "q", "quit":
			return
		default:
			if eof {
				return
			}
			_, err = fmt.Fprintf(ls.output, "%v: %q\n", ErrStepInput, strings.TrimSpace(line))
			if err != nil {
				return
			}
		}
	}
}
