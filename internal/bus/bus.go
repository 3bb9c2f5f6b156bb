// Package bus wires the CPU-visible 16-bit address space to the
// cartridge, WRAM, HRAM, the timer and joypad blocks, the PPU, and the
// interrupt registers.
package bus

import (
	"dmge/internal/cart"
	"dmge/internal/joypad"
	"dmge/internal/ppu"
	"dmge/internal/timer"
)

// Interrupt bit positions in IE/IF.
const (
	IntVBlank = 0
	IntSTAT   = 1
	IntTimer  = 2
	IntSerial = 3
	IntJoypad = 4
)

// Bus is the sole coordinator between the CPU and the devices.
type Bus struct {
	cart cart.Cartridge

	// Work RAM 8 KiB at 0xC000-0xDFFF; echo 0xE000-0xFDFF mirrors C000-DDFF.
	wram [0x2000]byte

	// High RAM 0xFF80-0xFFFE (127 bytes)
	hram [0x7F]byte

	ppu    *ppu.PPU
	timer  *timer.Timer
	joypad *joypad.Joypad

	ie    byte // IE at 0xFFFF
	ifReg byte // IF at 0xFF0F, lower 5 bits

	dma byte // last FF46 write

	bootEnabled bool

	// leftover dot-clocks not yet forming a full machine cycle
	mclkRem int
}

// New wires a Bus around the given cartridge. The frame sink is handed
// through to the PPU.
func New(c cart.Cartridge, onFrame ppu.FrameSink) *Bus {
	b := &Bus{cart: c, bootEnabled: true}
	b.ppu = ppu.New(func(bit int) { b.Request(bit) }, onFrame)
	b.timer = timer.New(func() { b.Request(IntTimer) })
	b.joypad = joypad.New(func() { b.Request(IntJoypad) })
	return b
}

// PPU exposes the pixel pipeline for the machine layer and tests.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Timer exposes the timer block for tests.
func (b *Bus) Timer() *timer.Timer { return b.timer }

// Joypad exposes the button latch to the host input layer.
func (b *Bus) Joypad() *joypad.Joypad { return b.joypad }

// Cart exposes the cartridge for battery persistence.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// Request raises an interrupt-request flag in IF.
func (b *Bus) Request(bit int) { b.ifReg |= 1 << uint(bit) }

// DisableBoot retires the boot ROM overlay, as a post-boot reset does.
func (b *Bus) DisableBoot() { b.bootEnabled = false }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		// The boot ROM overlays 0x0000-0x00FF until FF50 retires it.
		if b.bootEnabled && addr < 0x0100 {
			return bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr <= 0x9FFF: // VRAM via PPU
		return b.ppu.CPURead(addr)
	case addr <= 0xBFFF: // external cartridge RAM
		return b.cart.Read(addr)
	case addr <= 0xDFFF: // WRAM
		return b.wram[addr-0xC000]
	case addr <= 0xFDFF: // echo RAM mirrors C000-DDFF
		return b.wram[addr-0xE000]
	case addr <= 0xFE9F: // OAM via PPU
		return b.ppu.CPURead(addr)
	case addr <= 0xFEFF: // prohibited region
		return 0x00
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01, addr == 0xFF02: // serial, stubbed
		return 0x00
	case addr == 0xFF04:
		return b.timer.DIV()
	case addr == 0xFF05:
		return b.timer.TIMA()
	case addr == 0xFF06:
		return b.timer.TMA()
	case addr == 0xFF07:
		return b.timer.TAC()
	case addr == 0xFF0F:
		return 0xE0 | b.ifReg&0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F: // audio and wave RAM, stubbed
		return 0x00
	case addr == 0xFF46:
		return b.dma
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF50:
		if b.bootEnabled {
			return 0x00
		}
		return 0x01
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		// MBC control; never mutates ROM.
		b.cart.Write(addr, value)
	case addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr <= 0xFDFF:
		mirror := addr - 0x2000
		if mirror <= 0xDDFF {
			b.wram[mirror-0xC000] = value
		}
	case addr <= 0xFE9F:
		b.ppu.CPUWrite(addr, value)
	case addr <= 0xFEFF:
		// prohibited region: discarded
	case addr == 0xFF00:
		b.joypad.Write(value)
	case addr == 0xFF01, addr == 0xFF02:
		// serial stub: discarded
	case addr == 0xFF04:
		b.timer.WriteDIV(value)
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value)
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// audio stub: discarded
	case addr == 0xFF46:
		b.dma = value
		b.oamDMA(value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	}
}

// oamDMA copies exactly 160 bytes from value<<8 into OAM, bypassing the
// PPU's CPU-facing mode locks.
func (b *Bus) oamDMA(value byte) {
	src := uint16(value) << 8
	for i := 0; i < 0xA0; i++ {
		b.ppu.DMAWriteOAM(i, b.Read(src+uint16(i)))
	}
}

// Read16 reads a little-endian word: low byte at addr, high at addr+1.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := uint16(b.Read(addr))
	hi := uint16(b.Read(addr + 1))
	return hi<<8 | lo
}

// Write16 writes a little-endian word.
func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, byte(v))
	b.Write(addr+1, byte(v>>8))
}

// IE and IF expose the interrupt registers to the CPU's service loop.
func (b *Bus) IE() byte { return b.ie }
func (b *Bus) IF() byte { return b.ifReg & 0x1F }

// ClearIF acknowledges one interrupt-request bit.
func (b *Bus) ClearIF(bit int) { b.ifReg &^= 1 << uint(bit) }

// Tick advances the devices by the given number of dot-clocks (the CPU's
// T-cycle counts). The PPU runs per dot; the timer per machine cycle.
func (b *Bus) Tick(dots int) {
	if dots <= 0 {
		return
	}
	b.ppu.Tick(dots)
	b.mclkRem += dots
	b.timer.Tick(b.mclkRem / 4)
	b.mclkRem %= 4
}
