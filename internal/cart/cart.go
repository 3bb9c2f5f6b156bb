package cart

// Cartridge defines the interface the Bus needs for ROM/RAM banking.
// Implementations can be ROM-only or MBC variants. Addresses are CPU
// addresses: ROM at 0x0000-0x7FFF, external RAM at 0xA000-0xBFFF.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external RAM writes
	// (0xA000-0xBFFF). Control writes never mutate ROM.
	Write(addr uint16, value byte)
	// Header returns the decoded cartridge header.
	Header() *Header
}

// BatteryBacked is an optional interface for cartridges whose external RAM
// should be persisted to a .sav file.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// New picks an implementation based on the parsed header.
// The header is assumed valid (ParseHeader already vetted the codes).
func New(rom []byte, h *Header) Cartridge {
	switch h.CartType {
	case 0x01, 0x02, 0x03:
		return newMBC1(rom, h)
	case 0x05, 0x06:
		return newMBC2(rom, h)
	default: // 0x00, 0x08, 0x09: no controller
		return newROMOnly(rom, h)
	}
}
