// Package io provides the host side devices of the CHIP-8 machine: the
// hexadecimal keypad latch, ROM file loading, and the front ends that
// render the framebuffer, record the beeper and drive single-stepping.
package io

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

const (
	KEY_COUNT = 16 // Keys on the hexadecimal keypad.
)

var _keypad_defines = func() map[string]string {
	defines := make(map[string]string, KEY_COUNT)
	for key := range KEY_COUNT {
		defines[fmt.Sprintf("KEY_%X", key)] = fmt.Sprintf("%#x", key)
	}
	return defines
}()

// Keypad is the input latch for the 16 key hexadecimal keypad.
//
// The host writes key state; the CPU reads it. Every up to down
// transition is also queued as an edge, consumed by the wait-for-key
// instruction. At most KEY_COUNT edges are queued; the oldest are dropped.
type Keypad struct {
	down  [KEY_COUNT]bool
	edges []uint8
}

// Defines returns an iterator over the keypad's assembler defines.
func (kp *Keypad) Defines() iter.Seq2[string, string] {
	return maps.All(_keypad_defines)
}

// Reset releases all keys and drops pending edges.
func (kp *Keypad) Reset() {
	clear(kp.down[:])
	kp.edges = nil
}

// Set the state of a key. Keys outside of 0x0-0xF are ignored.
func (kp *Keypad) Set(key uint8, down bool) {
	if int(key) >= KEY_COUNT {
		return
	}
	if down && !kp.down[key] {
		if len(kp.edges) >= KEY_COUNT {
			kp.edges = slices.Delete(kp.edges, 0, 1)
		}
		kp.edges = append(kp.edges, key)
	}
	kp.down[key] = down
}

// Press a key.
func (kp *Keypad) Press(key uint8) {
	kp.Set(key, true)
}

// Release a key.
func (kp *Keypad) Release(key uint8) {
	kp.Set(key, false)
}

// Down returns true if the key is currently pressed.
func (kp *Keypad) Down(key uint8) bool {
	if int(key) >= KEY_COUNT {
		return false
	}
	return kp.down[key]
}

// State returns a snapshot of all key states.
func (kp *Keypad) State() (state [KEY_COUNT]bool) {
	return kp.down
}

// Edge consumes the oldest pending key press edge.
func (kp *Keypad) Edge() (key uint8, ok bool) {
	if len(kp.edges) > 0 {
		ok = true
		key = kp.edges[0]
		kp.edges = kp.edges[1:]
	}
	return
}

// ClearEdges drops all pending key press edges.
func (kp *Keypad) ClearEdges() {
	kp.edges = kp.edges[:0]
}
