//go:build glfw

package io

import (
	"errors"
	"runtime"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.2/glfw"

	"github.com/ezrec/chip8/display"
)

const (
	WINDOW_SCALE = 10 // Window pixels per CHIP-8 pixel.
)

func init() {
	// GLFW and OpenGL calls must come from the main thread.
	runtime.LockOSThread()
}

var _window_keys = map[glfw.Key]uint8{
	glfw.Key1: 0x1, glfw.Key2: 0x2, glfw.Key3: 0x3, glfw.Key4: 0xc,
	glfw.KeyQ: 0x4, glfw.KeyW: 0x5, glfw.KeyE: 0x6, glfw.KeyR: 0xd,
	glfw.KeyA: 0x7, glfw.KeyS: 0x8, glfw.KeyD: 0x9, glfw.KeyF: 0xe,
	glfw.KeyZ: 0xa, glfw.KeyX: 0x0, glfw.KeyC: 0xb, glfw.KeyV: 0xf,
}

// Window is an OpenGL front end. Unlike the terminal, it sees key
// releases, so the keypad follows the keyboard exactly.
type Window struct {
	window *glfw.Window
}

// OpenWindow creates the emulator window.
func OpenWindow(title string) (win *Window, err error) {
	err = glfw.Init()
	if err != nil {
		err = errors.Join(ErrWindowUnsupported, err)
		return
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(display.DISPLAY_WIDTH*WINDOW_SCALE, display.DISPLAY_HEIGHT*WINDOW_SCALE, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		err = errors.Join(ErrWindowUnsupported, err)
		return
	}
	window.MakeContextCurrent()

	err = gl.Init()
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		err = errors.Join(ErrWindowUnsupported, err)
		return
	}

	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, display.DISPLAY_WIDTH, display.DISPLAY_HEIGHT, 0, -1, 1)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()
	gl.ClearColor(0, 0, 0, 1)

	win = &Window{window: window}

	return
}

// Close the window.
func (win *Window) Close() (err error) {
	win.window.Destroy()
	glfw.Terminate()
	return
}

// Render draws the frame as one quad per lit pixel.
func (win *Window) Render(frame display.Frame) (err error) {
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Color3f(1, 1, 1)
	gl.Begin(gl.QUADS)
	for y := range display.DISPLAY_HEIGHT {
		for x := range display.DISPLAY_WIDTH {
			if !frame.Pixel(x, y) {
				continue
			}
			fx, fy := float32(x), float32(y)
			gl.Vertex2f(fx, fy)
			gl.Vertex2f(fx+1, fy)
			gl.Vertex2f(fx+1, fy+1)
			gl.Vertex2f(fx, fy+1)
		}
	}
	gl.End()
	win.window.SwapBuffers()

	return
}

// Poll processes window events and copies the keyboard into the keypad.
// Escape or closing the window quits.
func (win *Window) Poll(keypad *Keypad) (quit bool, err error) {
	glfw.PollEvents()

	if win.window.ShouldClose() || win.window.GetKey(glfw.KeyEscape) == glfw.Press {
		quit = true
		return
	}

	for glkey, key := range _window_keys {
		keypad.Set(key, win.window.GetKey(glkey) == glfw.Press)
	}

	return
}
