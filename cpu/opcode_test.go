package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		op   Op
		text string
	}){
		{0x0123, OP_SYS, "sys 0x123"},
		{0x00e0, OP_CLS, "cls"},
		{0x00ee, OP_RET, "ret"},
		{0x1abc, OP_JP, "jp 0xabc"},
		{0x2abc, OP_CALL, "call 0xabc"},
		{0x3a12, OP_SE_V_K, "se va, 0x12"},
		{0x4a12, OP_SNE_V_K, "sne va, 0x12"},
		{0x5ab0, OP_SE_V_V, "se va, vb"},
		{0x6a12, OP_LD_V_K, "ld va, 0x12"},
		{0x7a12, OP_ADD_V_K, "add va, 0x12"},
		{0x8ab0, OP_LD_V_V, "ld va, vb"},
		{0x8ab1, OP_OR, "or va, vb"},
		{0x8ab2, OP_AND, "and va, vb"},
		{0x8ab3, OP_XOR, "xor va, vb"},
		{0x8ab4, OP_ADD_V_V, "add va, vb"},
		{0x8ab5, OP_SUB, "sub va, vb"},
		{0x8ab6, OP_SHR, "shr va, vb"},
		{0x8ab7, OP_SUBN, "subn va, vb"},
		{0x8abe, OP_SHL, "shl va, vb"},
		{0x9ab0, OP_SNE_V_V, "sne va, vb"},
		{0xaabc, OP_LD_I, "ld i, 0xabc"},
		{0xbabc, OP_JP_V0, "jp v0, 0xabc"},
		{0xca12, OP_RND, "rnd va, 0x12"},
		{0xdab5, OP_DRW, "drw va, vb, 5"},
		{0xea9e, OP_SKP, "skp va"},
		{0xeaa1, OP_SKNP, "sknp va"},
		{0xfa07, OP_LD_V_DT, "ld va, dt"},
		{0xfa0a, OP_LD_V_KEY, "ld va, k"},
		{0xfa15, OP_LD_DT_V, "ld dt, va"},
		{0xfa18, OP_LD_ST_V, "ld st, va"},
		{0xfa1e, OP_ADD_I_V, "add i, va"},
		{0xfa29, OP_LD_F_V, "ld f, va"},
		{0xfa33, OP_LD_B_V, "ld b, va"},
		{0xfa55, OP_LD_MEM_V, "ld [i], va"},
		{0xfa65, OP_LD_V_MEM, "ld va, [i]"},
	}

	assert.Equal(OP_COUNT, len(table))

	seen := map[Op]bool{}
	for _, entry := range table {
		inst, err := Decode(entry.code)
		assert.NoError(err, entry.text)
		assert.Equal(entry.op, inst.Op, entry.text)
		assert.Equal(entry.code, inst.Code(), entry.text)
		assert.Equal(entry.text, inst.String())
		assert.Equal(entry.text, Disassemble(entry.code))
		seen[inst.Op] = true
	}
	assert.Len(seen, OP_COUNT)
}

func TestDecode_Invalid(t *testing.T) {
	assert := assert.New(t)

	invalid := []Code{
		0x5121, 0x512f,
		0x8128, 0x8129, 0x812a, 0x812b, 0x812c, 0x812d, 0x812f,
		0x9121, 0x912e,
		0xe19f, 0xe1a2, 0xe100,
		0xf100, 0xf108, 0xf130, 0xf175, 0xf1ff,
	}

	for _, code := range invalid {
		_, err := Decode(code)
		assert.ErrorIs(err, ErrInvalidOpcode, "%04x", uint16(code))
		assert.Contains(Disassemble(code), ".word 0x")
	}
}

func TestDecode_Total(t *testing.T) {
	assert := assert.New(t)

	valid := 0
	for word := range 0x10000 {
		inst, err := Decode(Code(word))
		if err != nil {
			continue
		}
		valid++
		if !assert.Equal(Code(word), inst.Code(), "%04x", word) {
			return
		}
	}

	// 0nnn, 10 full nibble groups, and the partial 5, 8, 9, E and F groups.
	assert.Equal(4096+10*4096+256+9*256+256+2*16+9*16, valid)
}

func TestCode_Fields(t *testing.T) {
	assert := assert.New(t)

	code := Code(0xd12f)
	assert.Equal(uint8(0x1), code.X())
	assert.Equal(uint8(0x2), code.Y())
	assert.Equal(uint8(0xf), code.N())
	assert.Equal(uint8(0x2f), code.KK())
	assert.Equal(uint16(0x12f), code.NNN())
}

func TestOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("drw", OP_DRW.String())
	assert.Equal("Op(99)", Op(99).String())
}

func TestInstruction_CodeUnknown(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Code(0), Instruction{Op: Op(OP_COUNT), X: 3, NNN: 0x123}.Code())
	assert.Equal(Code(0), Instruction{Op: Op(-1)}.Code())
	assert.Equal(Code(0x1123), Instruction{Op: OP_JP, NNN: 0x123}.Code())
}
