package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/io"
)

const (
	REGISTER_COUNT = 16 // General purpose registers V0-VF.
	REG_VF         = 0xf
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
	"FONT_BASE":     fmt.Sprintf("%#x", FONT_BASE),
	"FONT_HEIGHT":   fmt.Sprintf("%v", FONT_HEIGHT),
	"STACK_LIMIT":   fmt.Sprintf("%v", STACK_LIMIT),
}

// Quirks selects between the historical variants of ambiguous
// instructions.
type Quirks struct {
	ShiftVy             bool // SHR/SHL shift Vy into Vx.
	LoadStoreIncrementI bool // LD [I],Vx and LD Vx,[I] advance I past the block.
	JumpV0              bool // Bnnn adds V0, otherwise Bxnn adds Vx.
	WrapSprites         bool // DRW wraps pixels at the edges instead of clipping.
	LogicResetVf        bool // OR, AND, XOR clear VF.
}

// DefaultQuirks are the quirks of the reference interpreter.
var DefaultQuirks = Quirks{
	ShiftVy:             true,
	LoadStoreIncrementI: true,
	JumpV0:              true,
}

// Registers is a snapshot of the register file.
type Registers struct {
	V     [REGISTER_COUNT]uint8
	I     uint16
	Pc    uint16
	Sp    int
	Delay uint8
	Sound uint8
}

// Cpu is the simulation context for a single CHIP-8 machine.
type Cpu struct {
	Verbose bool   // Set to log every executed instruction.
	Quirks  Quirks // Instruction variants.

	Memory Memory                // Address space.
	V      [REGISTER_COUNT]uint8 // Register bank.
	I      uint16                // Index register.
	Pc     uint16                // Program counter.
	Stack  Stack                 // Return address stack.
	Timers Timers                // Delay and sound timers.

	Display *display.Display // Framebuffer.
	Keypad  *io.Keypad       // Input latch, written by the host.
	Rng     *Rng             // Random source for RND.

	Ticks int // Instructions executed since reset.

	waiting bool // LD Vx, K is waiting for a key press.
}

// NewCpu creates a new machine with its random source seeded from seed.
func NewCpu(seed uint64) (cpu *Cpu) {
	cpu = &Cpu{
		Quirks:  DefaultQuirks,
		Display: &display.Display{},
		Keypad:  &io.Keypad{},
		Rng:     NewRng(seed),
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears memory and reinstalls the font.
// - Clears the registers, stack, timers and display.
// - Sets PC to PROGRAM_START.
//
// The random source is not reseeded.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	clear(cpu.V[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Timers.Reset()
	cpu.Display.Reset()
	cpu.Keypad.Reset()
	cpu.Ticks = 0
	cpu.waiting = false
}

// Load a ROM image at PROGRAM_START.
func (cpu *Cpu) Load(rom []byte) (err error) {
	err = cpu.Memory.Load(rom)
	if err == nil && cpu.Verbose {
		log.Printf("cpu: loaded %v bytes", len(rom))
	}
	return
}

// Registers returns a snapshot of the register file.
func (cpu *Cpu) Registers() Registers {
	return Registers{
		V:     cpu.V,
		I:     cpu.I,
		Pc:    cpu.Pc,
		Sp:    cpu.Stack.Depth(),
		Delay: cpu.Timers.Delay,
		Sound: cpu.Timers.Sound,
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%5s: %03X\n", "pc", cpu.Pc)
	fmt.Fprintf(&sb, "%5s: %03X\n", "i", cpu.I)
	for n, val := range cpu.V {
		fmt.Fprintf(&sb, "%5s: %02X\n", fmt.Sprintf("v%X", n), val)
	}
	fmt.Fprintf(&sb, "%5s: %02X\n", "dt", cpu.Timers.Delay)
	fmt.Fprintf(&sb, "%5s: %02X\n", "st", cpu.Timers.Sound)
	if top, ok := cpu.Stack.Peek(); ok {
		fmt.Fprintf(&sb, "%5s: %03X (%d)\n", "stack", top, cpu.Stack.Depth())
	} else {
		fmt.Fprintf(&sb, "%5s: ---\n", "stack")
	}

	text = sb.String()
	return
}

// TickTimers decrements the delay and sound timers by one.
func (cpu *Cpu) TickTimers() {
	cpu.Timers.Tick()
}

// SoundActive returns true while the beeper should sound.
func (cpu *Cpu) SoundActive() bool {
	return cpu.Timers.SoundActive()
}

// Waiting returns true while LD Vx, K is waiting for a key press.
func (cpu *Cpu) Waiting() bool {
	return cpu.waiting
}

// Step fetches, decodes and executes a single instruction.
//
// If the instruction is waiting for a key press, blocked is set and PC
// is left on the instruction, so the caller can poll input, tick timers
// and retry.
func (cpu *Cpu) Step() (blocked bool, err error) {
	code, err := cpu.Memory.Fetch(cpu.Pc)
	if err != nil {
		err = errors.Join(ErrOpcode{Pc: cpu.Pc, Depth: cpu.Stack.Depth()}, err)
		return
	}

	inst, err := Decode(code)
	if err != nil {
		err = errors.Join(ErrOpcode{Pc: cpu.Pc, Word: code, Depth: cpu.Stack.Depth()}, err)
		return
	}

	return cpu.Execute(inst)
}

// flag converts a condition to a VF value.
func flag(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(inst Instruction) (blocked bool, err error) {
	pc := cpu.Pc
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode{Pc: pc, Word: inst.Code(), Depth: cpu.Stack.Depth()}, err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%03x: %04x %v", cpu.Pc, uint16(inst.Code()), inst)
	}

	next_pc := cpu.Pc + 2

	vx := &cpu.V[inst.X&0xf]
	vy := cpu.V[inst.Y&0xf]

	switch inst.Op {
	case OP_SYS:
		err = errors.Join(ErrInvalidOpcode, ErrSysUnsupported)
		return
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		addr, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		next_pc = addr
	case OP_JP:
		next_pc = inst.NNN
	case OP_CALL:
		if !cpu.Stack.Push(next_pc) {
			err = ErrStackOverflow
			return
		}
		next_pc = inst.NNN
	case OP_SE_V_K:
		if *vx == inst.KK {
			next_pc += 2
		}
	case OP_SNE_V_K:
		if *vx != inst.KK {
			next_pc += 2
		}
	case OP_SE_V_V:
		if *vx == vy {
			next_pc += 2
		}
	case OP_SNE_V_V:
		if *vx != vy {
			next_pc += 2
		}
	case OP_LD_V_K:
		*vx = inst.KK
	case OP_ADD_V_K:
		*vx += inst.KK
	case OP_LD_V_V:
		*vx = vy
	case OP_OR, OP_AND, OP_XOR:
		switch inst.Op {
		case OP_OR:
			*vx |= vy
		case OP_AND:
			*vx &= vy
		case OP_XOR:
			*vx ^= vy
		}
		if cpu.Quirks.LogicResetVf {
			cpu.V[REG_VF] = 0
		}
	case OP_ADD_V_V:
		sum := uint16(*vx) + uint16(vy)
		*vx = uint8(sum)
		cpu.V[REG_VF] = flag(sum > 0xff)
	case OP_SUB:
		a, b := *vx, vy
		*vx = a - b
		cpu.V[REG_VF] = flag(a >= b)
	case OP_SUBN:
		a, b := vy, *vx
		*vx = a - b
		cpu.V[REG_VF] = flag(a >= b)
	case OP_SHR:
		val := *vx
		if cpu.Quirks.ShiftVy {
			val = vy
		}
		*vx = val >> 1
		cpu.V[REG_VF] = val & 1
	case OP_SHL:
		val := *vx
		if cpu.Quirks.ShiftVy {
			val = vy
		}
		*vx = val << 1
		cpu.V[REG_VF] = val >> 7
	case OP_LD_I:
		cpu.I = inst.NNN
	case OP_JP_V0:
		offset := cpu.V[0]
		if !cpu.Quirks.JumpV0 {
			offset = *vx
		}
		next_pc = inst.NNN + uint16(offset)
	case OP_RND:
		*vx = cpu.Rng.Byte() & inst.KK
	case OP_DRW:
		var sprite []byte
		sprite, err = cpu.Memory.Slice(cpu.I, int(inst.N))
		if err != nil {
			return
		}
		collision := cpu.Display.Draw(*vx, vy, sprite, cpu.Quirks.WrapSprites)
		cpu.V[REG_VF] = flag(collision)
	case OP_SKP:
		if cpu.Keypad.Down(*vx & 0xf) {
			next_pc += 2
		}
	case OP_SKNP:
		if !cpu.Keypad.Down(*vx & 0xf) {
			next_pc += 2
		}
	case OP_LD_V_DT:
		*vx = cpu.Timers.Delay
	case OP_LD_V_KEY:
		if !cpu.waiting {
			// Only presses after the wait began count.
			cpu.waiting = true
			cpu.Keypad.ClearEdges()
		}
		key, ok := cpu.Keypad.Edge()
		if !ok {
			// Don't advance to next PC.
			next_pc = cpu.Pc
			blocked = true
			break
		}
		cpu.waiting = false
		*vx = key
	case OP_LD_DT_V:
		cpu.Timers.Delay = *vx
	case OP_LD_ST_V:
		cpu.Timers.Sound = *vx
	case OP_ADD_I_V:
		cpu.I += uint16(*vx)
	case OP_LD_F_V:
		cpu.I = FONT_BASE + uint16(*vx&0xf)*FONT_HEIGHT
	case OP_LD_B_V:
		var bcd []byte
		bcd, err = cpu.Memory.Slice(cpu.I, 3)
		if err != nil {
			return
		}
		val := *vx
		bcd[0] = val / 100
		bcd[1] = (val / 10) % 10
		bcd[2] = val % 10
	case OP_LD_MEM_V, OP_LD_V_MEM:
		count := int(inst.X&0xf) + 1
		var block []byte
		block, err = cpu.Memory.Slice(cpu.I, count)
		if err != nil {
			return
		}
		if inst.Op == OP_LD_MEM_V {
			copy(block, cpu.V[:count])
		} else {
			copy(cpu.V[:count], block)
		}
		if cpu.Quirks.LoadStoreIncrementI {
			cpu.I += uint16(count)
		}
	default:
		err = ErrInvalidOpcode
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}
