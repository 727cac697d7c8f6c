// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package display implements the 64x32 monochrome CHIP-8 framebuffer.
//
// Each row of the framebuffer is held as a single 64-bit word, with the
// most significant bit being the leftmost (x = 0) pixel. Sprites are
// XOR-composited into the rows, which keeps collision detection to a single
// AND per sprite row.
package display

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math/bits"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64 // Pixels per row.
	DISPLAY_HEIGHT = 32 // Rows.
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", DISPLAY_HEIGHT),
}

// Frame is a value snapshot of the framebuffer.
type Frame [DISPLAY_HEIGHT]uint64

// Pixel returns the state of the pixel at (x, y). Out of range
// coordinates read as unlit.
func (fr Frame) Pixel(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}
	return (fr[y] & (1 << (DISPLAY_WIDTH - 1 - x))) != 0
}

// Lit returns the number of lit pixels.
func (fr Frame) Lit() (count int) {
	for _, row := range fr {
		count += bits.OnesCount64(row)
	}
	return
}

// Render returns the frame as text, one line per row, using the
// given runes for lit and unlit pixels.
func (fr Frame) Render(on, off rune) string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for _, row := range fr {
		for x := range DISPLAY_WIDTH {
			if (row & (1 << (DISPLAY_WIDTH - 1 - x))) != 0 {
				sb.WriteRune(on)
			} else {
				sb.WriteRune(off)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the frame as rows of '1' and '0'.
func (fr Frame) String() string {
	return fr.Render('1', '0')
}

// Display is the framebuffer owned by the CPU.
type Display struct {
	Verbose bool // If set, logs every draw.

	rows  Frame
	Dirty bool // Set by any change, cleared by the renderer.
}

// Defines returns an iterator over the display's assembler defines.
func (d *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Reset clears the framebuffer.
func (d *Display) Reset() {
	d.Clear()
}

// Clear turns off all pixels.
func (d *Display) Clear() {
	clear(d.rows[:])
	d.Dirty = true
}

// Frame returns a snapshot of the framebuffer.
func (d *Display) Frame() Frame {
	return d.rows
}

// Pixel returns the state of the pixel at (x, y).
func (d *Display) Pixel(x, y int) bool {
	return d.rows.Pixel(x, y)
}

// Draw XORs an 8 pixel wide sprite into the framebuffer with its top left
// corner at (x, y). The origin always wraps to the display dimensions;
// sprite pixels beyond the right or bottom edge are clipped unless wrap is
// set, in which case they wrap around as well.
//
// Returns true if any lit pixel was turned off.
func (d *Display) Draw(x, y uint8, sprite []byte, wrap bool) (collision bool) {
	ox := int(x) % DISPLAY_WIDTH
	oy := int(y) % DISPLAY_HEIGHT

	for n, data := range sprite {
		row := oy + n
		if row >= DISPLAY_HEIGHT {
			if !wrap {
				break
			}
			row %= DISPLAY_HEIGHT
		}

		// Place the sprite byte at bits [63-ox .. 56-ox].
		line := uint64(data) << (DISPLAY_WIDTH - 8)
		var mask uint64
		if wrap {
			mask = bits.RotateLeft64(line, -ox)
		} else {
			mask = line >> ox
		}

		if (d.rows[row] & mask) != 0 {
			collision = true
		}
		d.rows[row] ^= mask
	}

	d.Dirty = true

	if d.Verbose {
		log.Printf("display: draw %v rows at (%v, %v), collision %v", len(sprite), ox, oy, collision)
	}

	return
}
