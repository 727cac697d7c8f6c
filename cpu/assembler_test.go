package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program ...string) (prog *Program) {
	asm := &Assembler{}
	asm.PredefineAll(NewCpu(DEFAULT_SEED).Defines())

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	return
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ANSWER", "42")

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Empty(prog.Binary())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("42", asm.Equate["ANSWER"])
}

func TestAssemblerRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []Code{
		0x0123, 0x00e0, 0x00ee, 0x1abc, 0x2abc, 0x3a12, 0x4a12, 0x5ab0,
		0x6a12, 0x7a12, 0x8ab0, 0x8ab1, 0x8ab2, 0x8ab3, 0x8ab4, 0x8ab5,
		0x8ab6, 0x8ab7, 0x8abe, 0x9ab0, 0xaabc, 0xbabc, 0xca12, 0xdab5,
		0xea9e, 0xeaa1, 0xfa07, 0xfa0a, 0xfa15, 0xfa18, 0xfa1e, 0xfa29,
		0xfa33, 0xfa55, 0xfa65,
	} {
		text := Disassemble(op)
		prog := assemble(t, text)
		assert.Equal([]byte{byte(op >> 8), byte(op)}, prog.Binary(), text)
	}
}

func TestAssemblerSyntax(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"LD V1 0x10", // commas and case are optional
		"shr v2",     // vy defaults to vx
		"shl v3, v4",
		"ld v5, -1",     // two's complement
		"add v6, ~0x0f", // inverted
		"ld v7, 'A'",    // character
		"se v8, 0b101",  // binary
		"drw v0 v1 0xf",
		"ld f, v9",
		"ld vA, [I]",
	)

	assert.Equal([]byte{
		0x61, 0x10,
		0x82, 0x26,
		0x83, 0x4e,
		0x65, 0xff,
		0x76, 0xf0,
		0x67, 0x41,
		0x38, 0x05,
		0xd0, 0x1f,
		0xf9, 0x29,
		0xfa, 0x65,
	}, prog.Binary())
}

func TestAssemblerLabel(t *testing.T) {
	prog := assemble(t,
		"start:",
		"  call sub",
		"  jp start",
		"  .byte 0xff, 0x00",
		"sub: ret",
		"  ld i, sprite",
		"  jp v0, table",
		"sprite: table: .byte 0b10000001 0x7e",
		"  .word sprite",
	)

	expected := []Opcode{
		{2, 0x200, []string{"call", "sub"}, []byte{0x22, 0x06}, "sub"},
		{3, 0x202, []string{"jp", "start"}, []byte{0x12, 0x00}, "start"},
		{4, 0x204, []string{".byte", "0xff", "0x00"}, []byte{0xff, 0x00}, ""},
		{5, 0x206, []string{"ret"}, []byte{0x00, 0xee}, ""},
		{6, 0x208, []string{"ld", "i", "sprite"}, []byte{0xa2, 0x0c}, "sprite"},
		{7, 0x20a, []string{"jp", "v0", "table"}, []byte{0xb2, 0x0c}, "table"},
		{8, 0x20c, []string{".byte", "0b10000001", "0x7e"}, []byte{0x81, 0x7e}, ""},
		{9, 0x20e, []string{".word", "sprite"}, []byte{0x02, 0x0c}, "sprite"},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerEquate(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".equ X v3",
		".equ COUNT 4",
		"ld X, $(COUNT * 2)",
		"ld i, FONT_BASE",
		"jp PROGRAM_START",
		"ld v0, LINENO",
		".word $(PROGRAM_START + 0x10), 0xbeef",
	)

	assert.Equal([]byte{
		0x63, 0x08,
		0xa0, 0x00,
		0x12, 0x00,
		0x60, 0x06,
		0x02, 0x10, 0xbe, 0xef,
	}, prog.Binary())
}

func TestAssemblerMacro(t *testing.T) {
	prog := assemble(t,
		".macro wait REG",
		"@loop: se REG, 0",
		"jp @loop",
		".endm",
		"wait v1",
		"wait v2",
	)

	expected := []Opcode{
		{2, 0x200, []string{"se", "v1", "0"}, []byte{0x31, 0x00}, ""},
		{3, 0x202, []string{"jp", "wait_5_loop"}, []byte{0x12, 0x00}, "wait_5_loop"},
		{2, 0x204, []string{"se", "v2", "0"}, []byte{0x32, 0x00}, ""},
		{3, 0x206, []string{"jp", "wait_6_loop"}, []byte{0x12, 0x04}, "wait_6_loop"},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerOrg(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"jp data",
		".org 0x300",
		"data: .byte 1 2",
	)

	rom := prog.Binary()
	assert.Len(rom, 0x102)
	assert.Equal([]byte{0x13, 0x00}, rom[:2])
	assert.Equal([]byte{1, 2}, rom[0x100:])
	assert.Zero(rom[0x80])
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		is   error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"ld v0, 0x100", 1, ErrValueRange},
		{"ld vg, 1", 1, ErrRegisterInvalid},
		{"drw v0, v1, 16", 1, ErrValueRange},
		{"jp v1, 0x200", 1, ErrRegisterInvalid},
		{"jp 0x1000", 1, ErrValueRange},
		{"cls 1", 1, ErrOpcodeExtraArgs},
		{"se v1", 1, ErrOpcodeValueMissing},
		{"nop", 1, ErrInstructionInvalid},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\ncls\n", 2, ErrMacroLonely},
		{".macro A B\nld B, 1\n.endm\ncls\nA vz\n", 5, ErrRegisterInvalid},
		{".org 0x300\n.org 0x200\n", 2, ErrValueRange},
		{".byte", 1, ErrOpcodeValueMissing},
		{".byte 256", 1, ErrValueRange},
		{".org 0xfff\n.word 0\n", 2, ErrRomTooLarge},
		{"ld v0, nothing", 1, nil},
		{"ld v0, $(\"aaa\")", 1, nil},
		{"ld i, 'ab'", 1, nil},
		{"cls\njp nowhere\n", 2, nil},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			if entry.is != nil {
				assert.ErrorIs(err, entry.is, entry.prog)
			}
		}
	}

	_, err := asm.Parse(strings.NewReader("jp nowhere"))
	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("nowhere"), missing)
}
