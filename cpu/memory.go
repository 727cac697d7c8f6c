package cpu

const (
	MEMORY_SIZE   = 4096                        // Bytes of addressable memory.
	PROGRAM_START = 0x200                       // Load address of ROM images.
	FONT_BASE     = 0x000                       // Address of the hex font glyphs.
	FONT_HEIGHT   = 5                           // Rows per font glyph.
	ROM_LIMIT     = MEMORY_SIZE - PROGRAM_START // Largest loadable ROM.
)

// Hex digit glyphs 0-F, 4 pixels wide and FONT_HEIGHT rows tall.
var fontGlyphs = [16 * FONT_HEIGHT]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

// Memory is the flat CHIP-8 address space.
type Memory [MEMORY_SIZE]byte

// Reset zeroes memory and installs the font.
func (mem *Memory) Reset() {
	clear(mem[:])
	copy(mem[FONT_BASE:], fontGlyphs[:])
}

// Load copies a ROM image verbatim to PROGRAM_START.
func (mem *Memory) Load(rom []byte) (err error) {
	if len(rom) > ROM_LIMIT {
		err = ErrRomSize{Size: len(rom), Limit: ROM_LIMIT}
		return
	}

	copy(mem[PROGRAM_START:], rom)

	return
}

// Fetch reads the big-endian instruction word at addr.
func (mem *Memory) Fetch(addr uint16) (code Code, err error) {
	if int(addr)+1 >= MEMORY_SIZE {
		err = ErrAddress(addr)
		return
	}

	code = Code(uint16(mem[addr])<<8 | uint16(mem[addr+1]))

	return
}

// Slice returns the n bytes of memory starting at addr.
// The slice aliases memory.
func (mem *Memory) Slice(addr uint16, n int) (data []byte, err error) {
	end := int(addr) + n
	if end > MEMORY_SIZE {
		err = ErrAddress(end - 1)
		return
	}

	data = mem[addr:end]

	return
}
