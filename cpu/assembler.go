// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for CHIP-8 mnemonics.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr uint16 // Load address of the next opcode.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// PredefineAll predefines every equate of an iterator.
func (asm *Assembler) PredefineAll(defines iter.Seq2[string, string]) {
	for equ, value := range defines {
		asm.Predefine(equ, value)
	}
}

// splitWords splits a line on whitespace and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word)
		return
	}
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// fieldOf returns the value of a word that must fit in an instruction
// field of the given bit width. Negative values are two's complement.
func (asm *Assembler) fieldOf(word string, width uint) (value uint16, err error) {
	v64, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if v64 >= int64(1)<<width || v64 < -(int64(1)<<(width-1)) {
		err = ErrValueRange
		return
	}

	value = uint16(v64) & uint16((1<<width)-1)
	return
}

// addressOf returns a 12-bit address, or the label to link later.
func (asm *Assembler) addressOf(word string) (nnn uint16, label string, err error) {
	nnn, err = asm.fieldOf(word, 12)
	var eNumber ErrParseNumber
	if errors.As(err, &eNumber) && reLabel.MatchString(word) {
		nnn = 0
		label = word
		err = nil
	}
	return
}

// registerOf returns the index of a V register.
func registerOf(word string) (reg uint8, err error) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		err = ErrRegisterInvalid
		return
	}
	n, perr := strconv.ParseUint(word[1:], 16, 4)
	if perr != nil {
		err = ErrRegisterInvalid
		return
	}
	reg = uint8(n)
	return
}

// isRegister returns true if the word names a V register.
func isRegister(word string) bool {
	_, err := registerOf(word)
	return err == nil
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words, handling
// equates, labels and macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.addr = PROGRAM_START
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && strings.EqualFold(words[0], ".macro") {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.EqualFold(words[0], ".endm") {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Bytes) < 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Bytes[0] |= byte(addr >> 8)
		op.Bytes[1] |= byte(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// ldStoreMap maps the special destinations of 'ld <dst>, vx'.
var ldStoreMap = map[string]Op{
	"dt":  OP_LD_DT_V,
	"st":  OP_LD_ST_V,
	"f":   OP_LD_F_V,
	"b":   OP_LD_B_V,
	"[i]": OP_LD_MEM_V,
}

// argCount checks the number of operands.
func argCount(args []string, lo, hi int) (err error) {
	switch {
	case len(args) < lo:
		err = ErrOpcodeValueMissing
	case len(args) > hi:
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(data) == 0 {
			return
		}
		if int(asm.addr)+len(data) > MEMORY_SIZE {
			err = ErrRomSize{Size: int(asm.addr) + len(data) - PROGRAM_START, Limit: ROM_LIMIT}
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.addr, Words: initial_words, Bytes: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.addr += uint16(len(data))
	}()

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".byte":
		if err = argCount(args, 1, len(args)); err != nil {
			return
		}
		for _, arg := range args {
			var value uint16
			value, err = asm.fieldOf(arg, 8)
			if err != nil {
				return
			}
			data = append(data, byte(value))
		}
		return
	case ".word":
		if err = argCount(args, 1, len(args)); err != nil {
			return
		}
		if len(args) == 1 && reLabel.MatchString(args[0]) {
			data = []byte{0, 0}
			label = args[0]
			return
		}
		for _, arg := range args {
			var value uint16
			value, err = asm.fieldOf(arg, 16)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
		return
	case ".org":
		if err = argCount(args, 1, 1); err != nil {
			return
		}
		var addr uint16
		addr, err = asm.fieldOf(args[0], 12)
		if err != nil {
			return
		}
		if addr < asm.addr {
			err = ErrValueRange
			return
		}
		asm.addr = addr
		return
	}

	var inst Instruction
	inst, label, err = asm.instruction(mnemonic, args)
	if err != nil {
		return
	}

	code := inst.Code()
	data = []byte{byte(code >> 8), byte(code)}

	return
}

// instruction assembles a single instruction mnemonic.
func (asm *Assembler) instruction(mnemonic string, args []string) (inst Instruction, label string, err error) {
	is := func(n int, keyword string) bool {
		return n < len(args) && strings.EqualFold(args[n], keyword)
	}

	switch mnemonic {
	case "cls", "ret":
		if err = argCount(args, 0, 0); err != nil {
			return
		}
		inst.Op = OP_CLS
		if mnemonic == "ret" {
			inst.Op = OP_RET
		}
	case "sys", "call":
		if err = argCount(args, 1, 1); err != nil {
			return
		}
		inst.Op = OP_SYS
		if mnemonic == "call" {
			inst.Op = OP_CALL
		}
		inst.NNN, label, err = asm.addressOf(args[0])
	case "jp":
		if err = argCount(args, 1, 2); err != nil {
			return
		}
		if len(args) == 1 {
			inst.Op = OP_JP
			inst.NNN, label, err = asm.addressOf(args[0])
			return
		}
		if !is(0, "v0") {
			err = ErrRegisterInvalid
			return
		}
		inst.Op = OP_JP_V0
		inst.NNN, label, err = asm.addressOf(args[1])
	case "se", "sne":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		if isRegister(args[1]) {
			inst.Op = map[string]Op{"se": OP_SE_V_V, "sne": OP_SNE_V_V}[mnemonic]
			inst.Y, err = registerOf(args[1])
			return
		}
		inst.Op = map[string]Op{"se": OP_SE_V_K, "sne": OP_SNE_V_K}[mnemonic]
		inst.KK, err = asm.byteOf(args[1])
	case "ld":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		if is(0, "i") {
			inst.Op = OP_LD_I
			inst.NNN, label, err = asm.addressOf(args[1])
			return
		}
		if op, ok := ldStoreMap[strings.ToLower(args[0])]; ok {
			inst.Op = op
			inst.X, err = registerOf(args[1])
			return
		}
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		switch {
		case is(1, "dt"):
			inst.Op = OP_LD_V_DT
		case is(1, "k"):
			inst.Op = OP_LD_V_KEY
		case is(1, "[i]"):
			inst.Op = OP_LD_V_MEM
		case isRegister(args[1]):
			inst.Op = OP_LD_V_V
			inst.Y, err = registerOf(args[1])
		default:
			inst.Op = OP_LD_V_K
			inst.KK, err = asm.byteOf(args[1])
		}
	case "add":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		if is(0, "i") {
			inst.Op = OP_ADD_I_V
			inst.X, err = registerOf(args[1])
			return
		}
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		if isRegister(args[1]) {
			inst.Op = OP_ADD_V_V
			inst.Y, err = registerOf(args[1])
			return
		}
		inst.Op = OP_ADD_V_K
		inst.KK, err = asm.byteOf(args[1])
	case "or", "and", "xor", "sub", "subn", "shr", "shl":
		least := 2
		if mnemonic == "shr" || mnemonic == "shl" {
			least = 1
		}
		if err = argCount(args, least, 2); err != nil {
			return
		}
		inst.Op = map[string]Op{
			"or":   OP_OR,
			"and":  OP_AND,
			"xor":  OP_XOR,
			"sub":  OP_SUB,
			"subn": OP_SUBN,
			"shr":  OP_SHR,
			"shl":  OP_SHL,
		}[mnemonic]
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		inst.Y = inst.X
		if len(args) > 1 {
			inst.Y, err = registerOf(args[1])
		}
	case "rnd":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		inst.Op = OP_RND
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		inst.KK, err = asm.byteOf(args[1])
	case "drw":
		if err = argCount(args, 3, 3); err != nil {
			return
		}
		inst.Op = OP_DRW
		if inst.X, err = registerOf(args[0]); err != nil {
			return
		}
		if inst.Y, err = registerOf(args[1]); err != nil {
			return
		}
		var n uint16
		n, err = asm.fieldOf(args[2], 4)
		inst.N = uint8(n)
	case "skp", "sknp":
		if err = argCount(args, 1, 1); err != nil {
			return
		}
		inst.Op = OP_SKP
		if mnemonic == "sknp" {
			inst.Op = OP_SKNP
		}
		inst.X, err = registerOf(args[0])
	default:
		err = ErrInstructionInvalid
	}

	return
}

// byteOf returns an 8-bit immediate.
func (asm *Assembler) byteOf(word string) (kk uint8, err error) {
	value, err := asm.fieldOf(word, 8)
	kk = uint8(value)
	return
}
