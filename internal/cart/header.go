package cart

import (
	"errors"
	"strings"
)

const (
	headerStart = 0x00A0
	headerEnd   = 0x00BF

	fixedValue = 0x96
)

type Header struct {
	Title      string // 0xA0-0xAB (trimmed ASCII)
	GameCode   string // 0xAC-0xAF
	MakerCode  string // 0xB0-0xB1
	FixedValue byte   // 0xB2, must be 0x96
	UnitCode   byte   // 0xB3
	DeviceType byte   // 0xB4
	Version    byte   // 0xBC
	Complement byte   // 0xBD

	// Decoded helpers (for logs)
	Region          string
	MakerName       string
	ComplementValid bool
}

// ParseHeader reads the cartridge header at the start of a ROM image.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}
	if rom[0xB2] != fixedValue {
		return nil, errors.New("ROM header fixed value mismatch")
	}

	h := &Header{
		Title:      strings.TrimRight(string(rom[0xA0:0xAC]), "\x00 "),
		GameCode:   strings.TrimRight(string(rom[0xAC:0xB0]), "\x00"),
		MakerCode:  strings.TrimRight(string(rom[0xB0:0xB2]), "\x00"),
		FixedValue: rom[0xB2],
		UnitCode:   rom[0xB3],
		DeviceType: rom[0xB4],
		Version:    rom[0xBC],
		Complement: rom[0xBD],
	}
	h.Region = decodeRegion(h.GameCode)
	h.MakerName = makerName(h.MakerCode)
	h.ComplementValid = complement(rom) == h.Complement
	return h, nil
}

// ComplementOK verifies the header complement byte at 0xBD.
func ComplementOK(rom []byte) bool {
	if len(rom) < headerEnd+1 {
		return false
	}
	return complement(rom) == rom[0xBD]
}

func complement(rom []byte) byte {
	var chk byte
	for addr := headerStart; addr <= 0xBC; addr++ {
		chk -= rom[addr]
	}
	return chk - 0x19
}

func decodeRegion(gameCode string) string {
	if len(gameCode) < 4 {
		return "unknown"
	}
	switch gameCode[3] {
	case 'J':
		return "Japan"
	case 'E':
		return "USA/English"
	case 'P':
		return "Europe"
	case 'D':
		return "German"
	case 'F':
		return "French"
	case 'I':
		return "Italian"
	case 'S':
		return "Spanish"
	default:
		return "unknown"
	}
}

func makerName(code string) string {
	switch code {
	case "01":
		return "Nintendo"
	case "":
		return "none"
	default:
		return "other"
	}
}
