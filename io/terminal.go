package io

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pkg/term"

	"github.com/ezrec/chip8/display"
)

const (
	TERMINAL_HOLD_FRAMES = 6    // Frames a key stays down after its last keystroke.
	TERMINAL_PIXEL_ON    = '█'  // Lit pixel.
	TERMINAL_PIXEL_OFF   = ' '  // Unlit pixel.
	KEY_ESCAPE           = 0x1b // Quits the emulator.
	KEY_INTERRUPT        = 0x03 // Ctrl-C, also quits.
)

// DefaultKeyMap maps the left hand side of a QWERTY keyboard onto the
// COSMAC VIP keypad layout:
//
//	1 2 3 4     1 2 3 C
//	q w e r  => 4 5 6 D
//	a s d f     7 8 9 E
//	z x c v     A 0 B F
var DefaultKeyMap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// Terminal is a text front end: it renders frames with block characters,
// and maps keystrokes onto the keypad.
//
// Terminals report key presses but not releases, so a key is held down
// for HoldFrames polls after its most recent keystroke.
type Terminal struct {
	Verbose    bool
	KeyMap     map[byte]uint8 // Keystroke to key. Unmapped keystrokes are ignored.
	HoldFrames int            // Polls to hold a key after its keystroke.

	output io.Writer
	tty    *term.Term
	input  chan byte
	failed chan error
	held   [KEY_COUNT]int
}

// NewTerminal creates a terminal front end reading keystrokes from input
// and writing frames to output.
func NewTerminal(input io.Reader, output io.Writer) (tm *Terminal) {
	tm = &Terminal{
		KeyMap:     DefaultKeyMap,
		HoldFrames: TERMINAL_HOLD_FRAMES,
		output:     output,
		input:      make(chan byte, 64),
		failed:     make(chan error, 1),
	}

	go tm.read(input)

	return
}

// OpenTerminal opens a terminal device in raw mode.
func OpenTerminal(path string) (tm *Terminal, err error) {
	tty, err := term.Open(path, term.RawMode)
	if err != nil {
		err = errors.Join(ErrTerminal, err)
		return
	}

	tm = NewTerminal(tty, tty)
	tm.tty = tty

	// Clear the screen, hide the cursor.
	_, err = fmt.Fprint(tty, "\x1b[2J\x1b[?25l")
	if err != nil {
		tm.Close()
		tm = nil
		err = errors.Join(ErrTerminal, err)
	}

	return
}

// Close restores the terminal device.
func (tm *Terminal) Close() (err error) {
	if tm.tty == nil {
		return
	}

	_, _ = fmt.Fprint(tm.tty, "\x1b[?25h\r\n")
	err = errors.Join(tm.tty.Restore(), tm.tty.Close())
	tm.tty = nil

	return
}

// read forwards keystrokes until the input fails.
func (tm *Terminal) read(input io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := input.Read(buf)
		for _, ch := range buf[:n] {
			tm.input <- ch
		}
		if err != nil {
			tm.failed <- err
			close(tm.input)
			return
		}
	}
}

// press handles a single keystroke.
func (tm *Terminal) press(keypad *Keypad, ch byte) (quit bool) {
	if ch == KEY_ESCAPE || ch == KEY_INTERRUPT {
		return true
	}

	key, ok := tm.KeyMap[ch]
	if !ok {
		if tm.Verbose {
			log.Printf("terminal: unmapped keystroke %q", ch)
		}
		return
	}

	keypad.Press(key)
	tm.held[key] = tm.HoldFrames

	return
}

// Poll drains pending keystrokes into the keypad, and releases keys whose
// hold time has expired.
func (tm *Terminal) Poll(keypad *Keypad) (quit bool, err error) {
	for key, count := range tm.held {
		if count == 0 {
			continue
		}
		tm.held[key]--
		if tm.held[key] == 0 {
			keypad.Release(uint8(key))
		}
	}

	for {
		select {
		case ch, ok := <-tm.input:
			if !ok {
				return tm.closed()
			}
			if tm.press(keypad, ch) {
				quit = true
				return
			}
		default:
			return
		}
	}
}

// closed reports why the input stopped.
func (tm *Terminal) closed() (quit bool, err error) {
	quit = true

	select {
	case err = <-tm.failed:
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
	}

	return
}

// Next waits for a step keystroke: 'n', space or enter to step, 'q' or
// escape to stop. Keypad keystrokes while waiting are ignored.
func (tm *Terminal) Next(state string) (ok bool, err error) {
	_, err = fmt.Fprintf(tm.output, "\x1b[%dH\x1b[J%s\r\n[n]ext, [q]uit: ",
		display.DISPLAY_HEIGHT+1,
		strings.ReplaceAll(state, "\n", "\r\n"))
	if err != nil {
		return
	}

	for ch := range tm.input {
		switch ch {
		case 'n', ' ', '\r', '\n':
			return true, nil
		case 'q', KEY_ESCAPE, KEY_INTERRUPT:
			return false, nil
		}
	}

	_, err = tm.closed()

	return
}

// Render draws the frame from the top left of the terminal.
func (tm *Terminal) Render(frame display.Frame) (err error) {
	text := frame.Render(TERMINAL_PIXEL_ON, TERMINAL_PIXEL_OFF)
	_, err = fmt.Fprint(tm.output, "\x1b[H"+strings.ReplaceAll(text, "\n", "\r\n"))

	return
}
