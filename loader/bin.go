// Package loader provides raw binary image loading for MRISC32
// programs.
//
// The image format is a flat byte stream. Unless the caller overrides
// the load address, the first four bytes hold the little-endian
// address the remainder of the file is copied to.
package loader

import (
	"fmt"
	"os"
)

// Image is a loaded program image ready to be copied into guest RAM.
type Image struct {
	// Addr is the address the payload should be loaded at.
	Addr uint32

	// Data is the image payload.
	Data []byte
}

// Load reads a binary image file. When overrideAddr is true the whole
// file is payload and addr is used as the load address; otherwise the
// leading four bytes select it.
func Load(path string, overrideAddr bool, addr uint32) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open the binary file: %w", err)
	}

	img := &Image{Addr: addr}
	if !overrideAddr {
		if len(data) < 4 {
			return nil, fmt.Errorf("premature end of file: %s", path)
		}
		img.Addr = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 |
			uint32(data[3])<<24
		data = data[4:]
	}
	img.Data = data

	return img, nil
}
