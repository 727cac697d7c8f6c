package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Device errors
	ErrRomMissing        = errors.New(f("rom missing"))
	ErrRomEmpty          = errors.New(f("rom empty"))
	ErrStepInput         = errors.New(f("illegal step input"))
	ErrTerminal          = errors.New(f("terminal unavailable"))
	ErrWavEncoding       = errors.New(f("wav encoding"))
	ErrWindowUnsupported = errors.New(f("window unsupported, rebuild with -tags glfw"))
)
