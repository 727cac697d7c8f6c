//go:build !glfw

package io

import (
	"github.com/ezrec/chip8/display"
)

// Window is unavailable without the glfw build tag.
type Window struct{}

// OpenWindow always fails without the glfw build tag.
func OpenWindow(title string) (win *Window, err error) {
	err = ErrWindowUnsupported
	return
}

func (win *Window) Close() error {
	return ErrWindowUnsupported
}

func (win *Window) Render(frame display.Frame) error {
	return ErrWindowUnsupported
}

func (win *Window) Poll(keypad *Keypad) (quit bool, err error) {
	err = ErrWindowUnsupported
	return
}
