// Package loader reads program images and provides the built-in demo program.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/tuboc/chip8vm/emulator"
)

// Load reads the program image at path and checks that it fits in memory.
func Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return Read(file)
}

// Read reads a program image from r and checks that it fits in memory.
func Read(r io.Reader) ([]byte, error) {
	// One byte more than allowed is enough to reject an oversized image.
	image, err := io.ReadAll(io.LimitReader(r, emulator.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if err := emulator.ValidateImage(image); err != nil {
		return nil, err
	}
	return image, nil
}

// demo draws the hex digits 0-F, then shows the glyph of every key pressed
// for half a second.
var demo = []byte{
	0x00, 0xE0, // 200 CLS
	0x60, 0x00, // 202 LD   V0,#00   digit
	0x61, 0x01, // 204 LD   V1,#01   x
	0x62, 0x01, // 206 LD   V2,#01   y
	0xF0, 0x29, // 208 LD   F,V0
	0xD1, 0x25, // 20A DRW  V1,V2,5
	0x70, 0x01, // 20C ADD  V0,#01
	0x71, 0x06, // 20E ADD  V1,#06
	0x40, 0x08, // 210 SNE  V0,#08
	0x22, 0x40, // 212 CALL 240      next row
	0x40, 0x10, // 214 SNE  V0,#10
	0x12, 0x1A, // 216 GOTO 21A
	0x12, 0x08, // 218 GOTO 208
	0xF3, 0x0A, // 21A LD   V3,K
	0xF3, 0x29, // 21C LD   F,V3
	0x64, 0x1C, // 21E LD   V4,#1C
	0x65, 0x14, // 220 LD   V5,#14
	0xD4, 0x55, // 222 DRW  V4,V5,5
	0x66, 0x1E, // 224 LD   V6,#1E
	0xF6, 0x15, // 226 LD   DT,V6
	0xF6, 0x07, // 228 LD   V6,DT
	0x36, 0x00, // 22A SE   V6,#00
	0x12, 0x28, // 22C GOTO 228
	0xD4, 0x55, // 22E DRW  V4,V5,5   erase
	0x12, 0x1A, // 230 GOTO 21A
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 232
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x61, 0x01, // 240 LD   V1,#01
	0x62, 0x08, // 242 LD   V2,#08
	0x00, 0xEE, // 244 RET
}

// Demo returns a copy of the built-in demo program.
func Demo() []byte {
	return append([]byte(nil), demo...)
}
