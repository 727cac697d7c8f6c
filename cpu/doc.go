// Package cpu implements the CHIP-8 processor and assembler.
//
// The CPU consists of a 4 KiB byte addressed memory with the hex font at
// 0x000 and programs loaded at 0x200, sixteen 8-bit registers (v0-vf, with
// vf doubling as the carry, borrow and collision flag), a 12-bit index
// register (i), a 16 entry return stack, and the delay and sound timers.
// The framebuffer and keypad are owned by the display and io packages.
//
// The assembler accepts the conventional CHIP-8 mnemonics, and supports
// macros, labels, equates, and compile-time expression evaluation.
package cpu
