package cpu

import (
	"iter"
)

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      uint16   // Load address of the first byte.
	Words     []string // Source words, after equate expansion.
	Bytes     []byte   // Assembled bytes.
	LinkLabel string   // Label to link into the address field, if any.
}

// Program is the output of the assembler.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

// Debug finds the source line that assembled the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && int(addr) < int(op.Addr)+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Addr),
			}
			break
		}
	}

	return
}

// Binary returns the ROM image of the program, starting at PROGRAM_START.
func (prog *Program) Binary() (rom []byte) {
	for addr, data := range prog.Bytes() {
		offset := int(addr) - PROGRAM_START
		if offset < 0 {
			continue
		}
		if offset >= len(rom) {
			rom = append(rom, make([]byte, offset+1-len(rom))...)
		}
		rom[offset] = data
	}

	return
}

// Bytes iterates over every assembled byte and its address.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, data byte) bool) {
		for _, op := range prog.Opcodes {
			for n, data := range op.Bytes {
				if !yield(op.Addr+uint16(n), data) {
					return
				}
			}
		}
	}
}
