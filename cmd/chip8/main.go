// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

type options struct {
	rom    string
	source string
	output string
	ui     string
	wav    string
	stats  string
	memviz string
	quiet  bool
	debug  bool
	trace  bool
	tty    string
	config emulator.Config
}

func main() {
	opt := options{config: emulator.DefaultConfig()}

	flag.StringVar(&opt.rom, "r", "", ".ch8 ROM file to run")
	flag.StringVar(&opt.source, "a", "", ".asm file to assemble and run")
	flag.StringVar(&opt.output, "o", "", "Save the assembled ROM, do not execute")
	flag.StringVar(&opt.ui, "ui", "term", "Front end: term, glfw or none")
	flag.StringVar(&opt.tty, "tty", "/dev/tty", "Terminal device for the term front end")
	flag.StringVar(&opt.wav, "wav", "", "Record the beeper to a .wav file")
	flag.StringVar(&opt.stats, "statsview", "", "Serve runtime statistics on this address")
	flag.StringVar(&opt.memviz, "memviz", "", "Write a graph of the final machine state")
	flag.BoolVar(&opt.quiet, "q", false, "Quiet mode, errors only")
	flag.BoolVar(&opt.debug, "d", false, "Debug mode, log every frame")
	flag.BoolVar(&opt.trace, "t", false, "Trace mode, log every instruction")
	flag.BoolVar(&opt.config.Stepping, "s", false, "Single-step mode")
	flag.Uint64Var(&opt.config.Seed, "seed", cpu.DEFAULT_SEED, "Random number seed")
	flag.IntVar(&opt.config.Hz, "hz", emulator.DEFAULT_HZ, "Instructions per second")
	flag.IntVar(&opt.config.Cycles, "cycles", 0, "Stop after this many instructions")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	switch {
	case opt.trace:
		opt.config.LogLevel = emulator.LOG_TRACE
	case opt.debug:
		opt.config.LogLevel = emulator.LOG_DEBUG
	case opt.quiet:
		opt.config.LogLevel = emulator.LOG_QUIET
	}

	err := run(&opt)
	if err != nil {
		log.Fatal(err)
	}
}

// load assembles or reads the program into the emulator.
func load(opt *options, emu *emulator.Emulator) (err error) {
	switch {
	case len(opt.source) != 0:
		var inf *os.File
		inf, err = os.Open(opt.source)
		if err != nil {
			return
		}
		defer inf.Close()

		var prog *cpu.Program
		prog, err = emu.Assembler().Parse(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", opt.source, err)
			return
		}

		err = emu.LoadProgram(prog)
	case len(opt.rom) != 0:
		var rom *io.Rom
		rom, err = io.LoadRom(os.DirFS(filepath.Dir(opt.rom)), filepath.Base(opt.rom))
		if err != nil {
			err = fmt.Errorf("%v: %w", opt.rom, err)
			return
		}

		err = emu.Load(rom.Data)
	default:
		err = io.ErrRomMissing
	}

	return
}

// save writes the assembled ROM.
func save(opt *options, emu *emulator.Emulator) (err error) {
	rom := &io.Rom{
		Name: filepath.Base(opt.output),
		Data: emu.Program.Binary(),
	}

	ouf, err := os.Create(opt.output)
	if err != nil {
		return
	}
	defer func() {
		err = errors.Join(err, ouf.Close())
	}()

	err = rom.Marshal(ouf)

	return
}

// attach connects the front end selected by the options.
func attach(opt *options, emu *emulator.Emulator) (closer func() error, err error) {
	closer = func() error { return nil }

	switch opt.ui {
	case "term":
		var tm *io.Terminal
		tm, err = io.OpenTerminal(opt.tty)
		if err != nil {
			return
		}
		tm.Verbose = opt.config.LogLevel >= emulator.LOG_DEBUG
		emu.Screen = tm
		emu.Input = tm
		emu.Stepper = tm
		closer = tm.Close
	case "glfw":
		var win *io.Window
		win, err = io.OpenWindow("chip8")
		if err != nil {
			return
		}
		emu.Screen = win
		emu.Input = win
		emu.Stepper = io.NewLineStepper(os.Stdin, os.Stdout)
		closer = win.Close
	case "none":
		emu.Stepper = io.NewLineStepper(os.Stdin, os.Stdout)
	default:
		err = fmt.Errorf("-ui %v: unknown front end", opt.ui)
	}

	return
}

func run(opt *options) (err error) {
	if len(opt.stats) != 0 {
		go func() {
			viewer.SetConfiguration(viewer.WithAddr(opt.stats))
			statsview.New().Start()
		}()
		log.Printf("stats server available at http://%v/debug/statsview", opt.stats)
	}

	emu := emulator.NewEmulator(opt.config)

	err = load(opt, emu)
	if err != nil {
		return
	}

	if len(opt.output) != 0 {
		return save(opt, emu)
	}

	closer, err := attach(opt, emu)
	if err != nil {
		return
	}
	defer func() {
		err = errors.Join(err, closer())
	}()

	if len(opt.wav) != 0 {
		var ouf *os.File
		ouf, err = os.Create(opt.wav)
		if err != nil {
			return
		}
		wr := io.NewWavRecorder(ouf)
		emu.Audio = wr
		defer func() {
			err = errors.Join(err, wr.Close(), ouf.Close())
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = emu.Run(ctx)

	if opt.ui == "none" && opt.config.LogLevel > emulator.LOG_QUIET {
		fmt.Print(emu.Cpu.Display.Frame().Render('#', '.'))
	}

	if len(opt.memviz) != 0 {
		ouf, ferr := os.Create(opt.memviz)
		if ferr != nil {
			err = errors.Join(err, ferr)
			return
		}
		memviz.Map(ouf, emu.Cpu)
		err = errors.Join(err, ouf.Close())
	}

	return
}
