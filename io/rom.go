package io

import (
	"errors"
	"io"
	"io/fs"
	"path"
)

// Rom is a ROM image read from a file system.
type Rom struct {
	Name string // Base name of the ROM file.
	Data []byte // Raw image, loaded verbatim at PROGRAM_START.
}

// LoadRom reads a ROM image from a file system.
// Size limits are enforced when the image is loaded into memory.
func LoadRom(filesys fs.FS, name string) (rom *Rom, err error) {
	data, err := fs.ReadFile(filesys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrRomMissing, err)
		}
		return
	}

	if len(data) == 0 {
		err = ErrRomEmpty
		return
	}

	rom = &Rom{
		Name: path.Base(name),
		Data: data,
	}

	return
}

// Marshal writes the ROM image to a writer.
func (rom *Rom) Marshal(file io.Writer) (err error) {
	_, err = file.Write(rom.Data)

	return
}
