package cpu

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrInvalidOpcode  = errors.New(f("invalid opcode"))
	ErrOutOfBounds    = errors.New(f("address out of bounds"))
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrRomTooLarge    = errors.New(f("rom too large"))
	ErrSysUnsupported = errors.New(f("machine code routines unsupported"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrValueRange         = errors.New(f("value out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrOpcode reports the machine state at a failed instruction.
type ErrOpcode struct {
	Pc    uint16 // Address of the instruction.
	Word  Code   // Raw instruction word.
	Depth int    // Call stack depth.
}

func (eo ErrOpcode) Error() string {
	return f("pc 0x%03x opcode 0x%04x (%v) depth %v", eo.Pc, uint16(eo.Word), Disassemble(eo.Word), eo.Depth)
}

// ErrRomSize reports a ROM image that does not fit in program memory.
type ErrRomSize struct {
	Size  int
	Limit int
}

func (er ErrRomSize) Error() string {
	return f("rom is %v bytes, limit is %v", er.Size, er.Limit)
}

func (er ErrRomSize) Unwrap() error {
	return ErrRomTooLarge
}

// ErrAddress reports a memory access outside of the address space.
type ErrAddress uint32

func (ea ErrAddress) Error() string {
	return f("address 0x%04x", uint32(ea))
}

func (ea ErrAddress) Unwrap() error {
	return ErrOutOfBounds
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
