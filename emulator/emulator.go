// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator couples a CHIP-8 CPU to its host collaborators, and
// paces instruction execution against the 60 Hz timer clock.
package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	DEFAULT_HZ = 500          // Default instructions per second.
	FRAME_HZ   = cpu.TIMER_HZ // Timer, input and render rate.
)

var _emulator_defines = map[string]string{
	"FRAME_HZ": fmt.Sprintf("%v", FRAME_HZ),
}

// LogLevel selects how much the emulator logs.
type LogLevel int

const (
	LOG_QUIET  = LogLevel(iota) // Errors only.
	LOG_NORMAL                  // Lifecycle events.
	LOG_DEBUG                   // Per frame events.
	LOG_TRACE                   // Every instruction.
)

func (level LogLevel) String() string {
	switch level {
	case LOG_QUIET:
		return "quiet"
	case LOG_NORMAL:
		return "normal"
	case LOG_DEBUG:
		return "debug"
	case LOG_TRACE:
		return "trace"
	}
	return fmt.Sprintf("LogLevel(%d)", int(level))
}

// Config of the emulator.
type Config struct {
	Seed     uint64     // Random source seed.
	Hz       int        // Instructions per second.
	Stepping bool       // Ask the Stepper before each instruction.
	Cycles   int        // If non-zero, stop after this many instruction attempts.
	Quirks   cpu.Quirks // Instruction variants.
	LogLevel LogLevel   // Logging verbosity.
}

// DefaultConfig returns the configuration of the reference interpreter.
func DefaultConfig() Config {
	return Config{
		Seed:     cpu.DEFAULT_SEED,
		Hz:       DEFAULT_HZ,
		Quirks:   cpu.DefaultQuirks,
		LogLevel: LOG_NORMAL,
	}
}

// Screen renders the framebuffer.
type Screen interface {
	Render(frame display.Frame) error
}

// Input updates the keypad from the host.
type Input interface {
	Poll(keypad *io.Keypad) (quit bool, err error)
}

// Audio drives the beeper.
type Audio interface {
	Beep(active bool) error
}

// Stepper is asked for permission before each instruction in single-step mode.
type Stepper interface {
	Next(state string) (ok bool, err error)
}

// Emulator state. CPU + host collaborators.
type Emulator struct {
	Config
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Screen  Screen  // If set, receives each changed frame.
	Input   Input   // If set, polled once per frame.
	Audio   Audio   // If set, receives the beeper state once per frame.
	Stepper Stepper // Required in single-step mode.

	Frames int // Frames completed since reset.
	Steps  int // Instruction attempts since reset, including blocked ones.

	rom    []byte
	credit int // Fractional instructions carried to the next frame, in 1/FRAME_HZ units.
}

// NewEmulator creates a new emulator.
func NewEmulator(config Config) (emu *Emulator) {
	if config.Hz <= 0 {
		config.Hz = DEFAULT_HZ
	}

	emu = &Emulator{
		Config:  config,
		Cpu:     cpu.NewCpu(config.Seed),
		Program: &cpu.Program{},
	}

	emu.Cpu.Quirks = config.Quirks
	emu.Cpu.Verbose = config.LogLevel >= LOG_TRACE
	emu.Cpu.Display.Verbose = config.LogLevel >= LOG_TRACE

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Cpu.Display.Defines(),
		emu.Cpu.Keypad.Defines(),
	)
}

// Assembler returns an assembler with all of the defines predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.LogLevel >= LOG_TRACE}
	asm.PredefineAll(emu.Defines())
	return
}

func (emu *Emulator) logf(level LogLevel, format string, args ...any) {
	if emu.LogLevel >= level {
		log.Printf(format, args...)
	}
}

// Load a ROM image and reset the machine.
func (emu *Emulator) Load(rom []byte) (err error) {
	emu.rom = slices.Clone(rom)
	emu.Program = &cpu.Program{}

	return emu.Reset()
}

// LoadProgram loads an assembled program, keeping its listing
// for error reports.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the machine and reload the ROM.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Reset()
	emu.Frames = 0
	emu.Steps = 0
	emu.credit = 0

	err = emu.Cpu.Load(emu.rom)
	if err != nil {
		return
	}

	emu.logf(LOG_NORMAL, "chip8: reset, %v byte rom, %v Hz", len(emu.rom), emu.Hz)

	return
}

// LineNo returns the source line number for an address, or 0 if
// no program listing covers it.
func (emu *Emulator) LineNo(addr uint16) int {
	dbg := emu.Program.Debug(addr)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// State describes the machine and its next instruction.
func (emu *Emulator) State() string {
	var sb strings.Builder

	sb.WriteString(emu.Cpu.String())

	pc := emu.Cpu.Pc
	code, err := emu.Cpu.Memory.Fetch(pc)
	if err != nil {
		fmt.Fprintf(&sb, "%03X: %v\n", pc, err)
		return sb.String()
	}

	fmt.Fprintf(&sb, "%03X: %04X %v", pc, uint16(code), cpu.Disassemble(code))
	if dbg := emu.Program.Debug(pc); dbg.Opcode != nil {
		fmt.Fprintf(&sb, "\t; line %d: %v", dbg.LineNo, strings.Join(dbg.Words, " "))
	}
	sb.WriteByte('\n')

	return sb.String()
}

// Tick executes a single instruction.
func (emu *Emulator) Tick() (blocked bool, err error) {
	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: emu.LineNo(pc), Err: err}
		}
	}()

	emu.Steps++
	blocked, err = emu.Cpu.Step()

	return
}

// done returns true when the cycle limit has been reached.
func (emu *Emulator) done() bool {
	return emu.Cycles > 0 && emu.Steps >= emu.Cycles
}

// Frame runs one 60 Hz frame: Hz/60 instructions, stopping early if
// the CPU is waiting for a key, then the timer tick, beeper and render.
func (emu *Emulator) Frame() (err error) {
	emu.credit += emu.Hz
	count := emu.credit / FRAME_HZ
	emu.credit %= FRAME_HZ

	for range count {
		if emu.done() {
			break
		}
		var blocked bool
		blocked, err = emu.Tick()
		if err != nil {
			return
		}
		if blocked {
			break
		}
	}

	return emu.endFrame()
}

// endFrame ticks the timers and updates the beeper and screen.
func (emu *Emulator) endFrame() (err error) {
	beep := emu.Cpu.SoundActive()
	emu.Cpu.TickTimers()
	emu.Frames++

	if emu.Audio != nil {
		err = emu.Audio.Beep(beep)
		if err != nil {
			return
		}
	}

	err = emu.render()
	if err != nil {
		return
	}

	emu.logf(LOG_DEBUG, "chip8: frame %v, %v steps, dt %v st %v", emu.Frames, emu.Steps, emu.Cpu.Timers.Delay, emu.Cpu.Timers.Sound)

	return
}

// render hands a changed framebuffer to the screen.
func (emu *Emulator) render() (err error) {
	if emu.Screen == nil || !emu.Cpu.Display.Dirty {
		return
	}

	err = emu.Screen.Render(emu.Cpu.Display.Frame())
	emu.Cpu.Display.Dirty = false

	return
}

// poll the input collaborator.
func (emu *Emulator) poll() (quit bool, err error) {
	if emu.Input == nil {
		return
	}
	return emu.Input.Poll(emu.Cpu.Keypad)
}

// Run the emulator until the context is cancelled, the input requests a
// quit, the cycle limit is reached, or an error occurs.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	if len(emu.rom) == 0 {
		err = ErrRomMissing
		return
	}

	if emu.Stepping {
		return emu.runStepping(ctx)
	}

	ticker := time.NewTicker(time.Second / FRAME_HZ)
	defer ticker.Stop()

	for !emu.done() {
		var quit bool
		quit, err = emu.poll()
		if err != nil || quit {
			return
		}

		err = emu.Frame()
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			emu.logf(LOG_NORMAL, "chip8: %v", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}

	emu.logf(LOG_NORMAL, "chip8: cycle limit %v reached", emu.Cycles)

	return
}

// runStepping asks the Stepper before every instruction, and runs the
// timers every Hz/60 instructions.
func (emu *Emulator) runStepping(ctx context.Context) (err error) {
	if emu.Stepper == nil {
		err = ErrStepperMissing
		return
	}

	per_frame := max(1, emu.Hz/FRAME_HZ)

	for !emu.done() {
		if ctx.Err() != nil {
			return nil
		}

		var quit bool
		quit, err = emu.poll()
		if err != nil || quit {
			return
		}

		var ok bool
		ok, err = emu.Stepper.Next(emu.State())
		if err != nil || !ok {
			return
		}

		_, err = emu.Tick()
		if err != nil {
			return
		}

		if emu.Steps%per_frame == 0 {
			err = emu.endFrame()
		} else {
			err = emu.render()
		}
		if err != nil {
			return
		}
	}

	return
}
