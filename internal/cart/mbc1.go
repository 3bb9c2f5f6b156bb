package cart

// MBC1 implements MBC1 ROM/RAM banking: ROM up to 2 MB, RAM up to 32 KB.
// The RTC-less register layout is: RAM enable in 0x0000-0x1FFF, ROM bank
// low 5 bits in 0x2000-0x3FFF, RAM bank / ROM bank high 2 bits in
// 0x4000-0x5FFF, banking mode in 0x6000-0x7FFF.
type MBC1 struct {
	rom []byte
	ram []byte
	h   *Header

	romBankLow5       byte // lower 5 bits of ROM bank number (0 remapped to 1)
	ramBankOrRomHigh2 byte // ROM bank high bits in both modes; in mode 1 also the RAM bank and the bank-0 region's high bits
	ramEnabled        bool
	modeSelect        byte // 0: ROM banking (default), 1: RAM banking
}

func newMBC1(rom []byte, h *Header) *MBC1 {
	m := &MBC1{rom: rom, h: h, romBankLow5: 1}
	if h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
	}
	return m
}

func (m *MBC1) Header() *Header { return m.h }

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.modeSelect == 0 {
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		}
		// Mode 1 applies the high bits to the bank-0 region as well.
		bank := int(m.ramBankOrRomHigh2&0x03) << 5
		off := bank*0x4000 + int(addr)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		off := int(m.effectiveROMBank())*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		// RAM enable: low nibble must be 0x0A
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.romBankLow5 = value & 0x1F
		if m.romBankLow5 == 0 {
			m.romBankLow5 = 1
		}
	case addr < 0x6000:
		m.ramBankOrRomHigh2 = value & 0x03
	case addr < 0x8000:
		m.modeSelect = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// effectiveROMBank combines the high 2 bits with the low 5. Banks 0x00,
// 0x20, 0x40 and 0x60 cannot appear in the switchable window: the low-5
// register already remaps 0 to 1, which bumps each of them to the next
// bank up.
func (m *MBC1) effectiveROMBank() int {
	high := int(m.ramBankOrRomHigh2 & 0x03)
	return high<<5 | int(m.romBankLow5)
}

func (m *MBC1) ramOffset(addr uint16) int {
	bank := 0
	if m.modeSelect == 1 {
		bank = int(m.ramBankOrRomHigh2 & 0x03)
	}
	return bank*0x2000 + int(addr-0xA000)
}

func (m *MBC1) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadRAM(data []byte) {
	copy(m.ram, data)
}
