package cpu

import (
	"fmt"
)

// Op is the decoded operation of an instruction word.
type Op int

const (
	OP_SYS      = Op(iota) // 0nnn sys nnn
	OP_CLS                 // 00E0 cls
	OP_RET                 // 00EE ret
	OP_JP                  // 1nnn jp nnn
	OP_CALL                // 2nnn call nnn
	OP_SE_V_K              // 3xkk se vx, kk
	OP_SNE_V_K             // 4xkk sne vx, kk
	OP_SE_V_V              // 5xy0 se vx, vy
	OP_LD_V_K              // 6xkk ld vx, kk
	OP_ADD_V_K             // 7xkk add vx, kk
	OP_LD_V_V              // 8xy0 ld vx, vy
	OP_OR                  // 8xy1 or vx, vy
	OP_AND                 // 8xy2 and vx, vy
	OP_XOR                 // 8xy3 xor vx, vy
	OP_ADD_V_V             // 8xy4 add vx, vy
	OP_SUB                 // 8xy5 sub vx, vy
	OP_SHR                 // 8xy6 shr vx, vy
	OP_SUBN                // 8xy7 subn vx, vy
	OP_SHL                 // 8xyE shl vx, vy
	OP_SNE_V_V             // 9xy0 sne vx, vy
	OP_LD_I                // Annn ld i, nnn
	OP_JP_V0               // Bnnn jp v0, nnn
	OP_RND                 // Cxkk rnd vx, kk
	OP_DRW                 // Dxyn drw vx, vy, n
	OP_SKP                 // Ex9E skp vx
	OP_SKNP                // ExA1 sknp vx
	OP_LD_V_DT             // Fx07 ld vx, dt
	OP_LD_V_KEY            // Fx0A ld vx, k
	OP_LD_DT_V             // Fx15 ld dt, vx
	OP_LD_ST_V             // Fx18 ld st, vx
	OP_ADD_I_V             // Fx1E add i, vx
	OP_LD_F_V              // Fx29 ld f, vx
	OP_LD_B_V              // Fx33 ld b, vx
	OP_LD_MEM_V            // Fx55 ld [i], vx
	OP_LD_V_MEM            // Fx65 ld vx, [i]

	OP_COUNT = int(iota) // Number of instruction shapes.
)

// opShape is the fixed bit pattern and operand layout of each Op.
var opShape = [OP_COUNT]struct {
	name string
	base uint16 // Fixed bits of the instruction word.
	args string // Operand fields present in the word.
}{
	OP_SYS:      {"sys", 0x0000, "nnn"},
	OP_CLS:      {"cls", 0x00e0, ""},
	OP_RET:      {"ret", 0x00ee, ""},
	OP_JP:       {"jp", 0x1000, "nnn"},
	OP_CALL:     {"call", 0x2000, "nnn"},
	OP_SE_V_K:   {"se", 0x3000, "xkk"},
	OP_SNE_V_K:  {"sne", 0x4000, "xkk"},
	OP_SE_V_V:   {"se", 0x5000, "xy"},
	OP_LD_V_K:   {"ld", 0x6000, "xkk"},
	OP_ADD_V_K:  {"add", 0x7000, "xkk"},
	OP_LD_V_V:   {"ld", 0x8000, "xy"},
	OP_OR:       {"or", 0x8001, "xy"},
	OP_AND:      {"and", 0x8002, "xy"},
	OP_XOR:      {"xor", 0x8003, "xy"},
	OP_ADD_V_V:  {"add", 0x8004, "xy"},
	OP_SUB:      {"sub", 0x8005, "xy"},
	OP_SHR:      {"shr", 0x8006, "xy"},
	OP_SUBN:     {"subn", 0x8007, "xy"},
	OP_SHL:      {"shl", 0x800e, "xy"},
	OP_SNE_V_V:  {"sne", 0x9000, "xy"},
	OP_LD_I:     {"ld", 0xa000, "nnn"},
	OP_JP_V0:    {"jp", 0xb000, "nnn"},
	OP_RND:      {"rnd", 0xc000, "xkk"},
	OP_DRW:      {"drw", 0xd000, "xyn"},
	OP_SKP:      {"skp", 0xe09e, "x"},
	OP_SKNP:     {"sknp", 0xe0a1, "x"},
	OP_LD_V_DT:  {"ld", 0xf007, "x"},
	OP_LD_V_KEY: {"ld", 0xf00a, "x"},
	OP_LD_DT_V:  {"ld", 0xf015, "x"},
	OP_LD_ST_V:  {"ld", 0xf018, "x"},
	OP_ADD_I_V:  {"add", 0xf01e, "x"},
	OP_LD_F_V:   {"ld", 0xf029, "x"},
	OP_LD_B_V:   {"ld", 0xf033, "x"},
	OP_LD_MEM_V: {"ld", 0xf055, "x"},
	OP_LD_V_MEM: {"ld", 0xf065, "x"},
}

// String returns the mnemonic of the operation.
func (op Op) String() string {
	if op < 0 || int(op) >= OP_COUNT {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opShape[op].name
}

// Code is a raw 16-bit instruction word.
type Code uint16

// X returns the second nibble (Vx register index).
func (code Code) X() uint8 {
	return uint8((code >> 8) & 0xf)
}

// Y returns the third nibble (Vy register index).
func (code Code) Y() uint8 {
	return uint8((code >> 4) & 0xf)
}

// N returns the fourth nibble.
func (code Code) N() uint8 {
	return uint8(code & 0xf)
}

// KK returns the low byte.
func (code Code) KK() uint8 {
	return uint8(code & 0xff)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code & 0xfff)
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Op  Op
	X   uint8  // Vx register index.
	Y   uint8  // Vy register index.
	N   uint8  // 4-bit immediate.
	KK  uint8  // 8-bit immediate.
	NNN uint16 // 12-bit address.
}

// Decode maps an instruction word to one of the 35 instruction shapes.
func Decode(code Code) (inst Instruction, err error) {
	op := Op(-1)

	switch code >> 12 {
	case 0x0:
		switch code {
		case 0x00e0:
			op = OP_CLS
		case 0x00ee:
			op = OP_RET
		default:
			op = OP_SYS
		}
	case 0x1:
		op = OP_JP
	case 0x2:
		op = OP_CALL
	case 0x3:
		op = OP_SE_V_K
	case 0x4:
		op = OP_SNE_V_K
	case 0x5:
		if code.N() == 0 {
			op = OP_SE_V_V
		}
	case 0x6:
		op = OP_LD_V_K
	case 0x7:
		op = OP_ADD_V_K
	case 0x8:
		switch code.N() {
		case 0x0:
			op = OP_LD_V_V
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_V_V
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xe:
			op = OP_SHL
		}
	case 0x9:
		if code.N() == 0 {
			op = OP_SNE_V_V
		}
	case 0xa:
		op = OP_LD_I
	case 0xb:
		op = OP_JP_V0
	case 0xc:
		op = OP_RND
	case 0xd:
		op = OP_DRW
	case 0xe:
		switch code.KK() {
		case 0x9e:
			op = OP_SKP
		case 0xa1:
			op = OP_SKNP
		}
	case 0xf:
		switch code.KK() {
		case 0x07:
			op = OP_LD_V_DT
		case 0x0a:
			op = OP_LD_V_KEY
		case 0x15:
			op = OP_LD_DT_V
		case 0x18:
			op = OP_LD_ST_V
		case 0x1e:
			op = OP_ADD_I_V
		case 0x29:
			op = OP_LD_F_V
		case 0x33:
			op = OP_LD_B_V
		case 0x55:
			op = OP_LD_MEM_V
		case 0x65:
			op = OP_LD_V_MEM
		}
	}

	if op < 0 {
		err = ErrInvalidOpcode
		return
	}

	inst = Instruction{
		Op:  op,
		X:   code.X(),
		Y:   code.Y(),
		N:   code.N(),
		KK:  code.KK(),
		NNN: code.NNN(),
	}

	return
}

// Code encodes the instruction back into its instruction word.
// Only the operand fields used by the instruction shape are encoded.
// An unknown Op encodes as 0x0000.
func (inst Instruction) Code() (code Code) {
	if inst.Op < 0 || int(inst.Op) >= OP_COUNT {
		return
	}

	shape := opShape[inst.Op]
	code = Code(shape.base)

	switch shape.args {
	case "nnn":
		code |= Code(inst.NNN & 0xfff)
	case "xkk":
		code |= Code(inst.X&0xf)<<8 | Code(inst.KK)
	case "xy":
		code |= Code(inst.X&0xf)<<8 | Code(inst.Y&0xf)<<4
	case "xyn":
		code |= Code(inst.X&0xf)<<8 | Code(inst.Y&0xf)<<4 | Code(inst.N&0xf)
	case "x":
		code |= Code(inst.X&0xf) << 8
	}

	return
}

// String returns the assembly language form of the instruction.
func (inst Instruction) String() string {
	name := inst.Op.String()

	switch inst.Op {
	case OP_CLS, OP_RET:
		return name
	case OP_SYS, OP_JP, OP_CALL:
		return fmt.Sprintf("%v 0x%03x", name, inst.NNN)
	case OP_LD_I:
		return fmt.Sprintf("ld i, 0x%03x", inst.NNN)
	case OP_JP_V0:
		return fmt.Sprintf("jp v0, 0x%03x", inst.NNN)
	case OP_SE_V_K, OP_SNE_V_K, OP_LD_V_K, OP_ADD_V_K, OP_RND:
		return fmt.Sprintf("%v v%x, 0x%02x", name, inst.X, inst.KK)
	case OP_DRW:
		return fmt.Sprintf("drw v%x, v%x, %d", inst.X, inst.Y, inst.N)
	case OP_SKP, OP_SKNP:
		return fmt.Sprintf("%v v%x", name, inst.X)
	case OP_LD_V_DT:
		return fmt.Sprintf("ld v%x, dt", inst.X)
	case OP_LD_V_KEY:
		return fmt.Sprintf("ld v%x, k", inst.X)
	case OP_LD_DT_V:
		return fmt.Sprintf("ld dt, v%x", inst.X)
	case OP_LD_ST_V:
		return fmt.Sprintf("ld st, v%x", inst.X)
	case OP_ADD_I_V:
		return fmt.Sprintf("add i, v%x", inst.X)
	case OP_LD_F_V:
		return fmt.Sprintf("ld f, v%x", inst.X)
	case OP_LD_B_V:
		return fmt.Sprintf("ld b, v%x", inst.X)
	case OP_LD_MEM_V:
		return fmt.Sprintf("ld [i], v%x", inst.X)
	case OP_LD_V_MEM:
		return fmt.Sprintf("ld v%x, [i]", inst.X)
	}

	// Register to register forms.
	return fmt.Sprintf("%v v%x, v%x", name, inst.X, inst.Y)
}

// Disassemble returns the assembly language form of an instruction word,
// or a .word directive if the word does not decode.
func Disassemble(code Code) string {
	inst, err := Decode(code)
	if err != nil {
		return fmt.Sprintf(".word 0x%04x", uint16(code))
	}
	return inst.String()
}
