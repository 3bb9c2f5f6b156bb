// Package emu wires cartridge, bus and CPU into a machine and drives
// them one frame at a time.
package emu

import (
	"fmt"

	"dmge/internal/bus"
	"dmge/internal/cart"
	"dmge/internal/cpu"
	"dmge/internal/joypad"
	"dmge/internal/ppu"
)

// Buttons mirrors the host-side state of the eight physical buttons.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Machine owns the core and exposes the frame-step driver loop.
type Machine struct {
	cfg Config

	cart cart.Cartridge
	bus  *bus.Bus
	cpu  *cpu.CPU

	// last completed frame, palette indices 0..3
	frame [ppu.ScreenW * ppu.ScreenH]byte

	prev    Buttons
	romPath string
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// LoadCartridge parses the ROM bytes and wires a fresh bus and CPU
// around the resulting cartridge.
func (m *Machine) LoadCartridge(rom []byte) error {
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return err
	}
	m.cart = cart.New(rom, h)
	m.bus = bus.New(m.cart, func(f *[ppu.ScreenW * ppu.ScreenH]byte) {
		m.frame = *f
	})
	m.cpu = cpu.New(m.bus)
	if m.cfg.SkipBoot {
		m.cpu.ResetNoBoot()
	}
	return nil
}

// LoadROMFromFile loads a ROM (possibly from an archive) and remembers
// the path for battery placement.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := cart.LoadROMFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(rom); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path of the loaded ROM, if it came from a file.
func (m *Machine) ROMPath() string { return m.romPath }

// ROMTitle returns the title field of the cartridge header.
func (m *Machine) ROMTitle() string {
	if m.cart == nil {
		return ""
	}
	return m.cart.Header().Title
}

// Header exposes the decoded cartridge header for logging.
func (m *Machine) Header() *cart.Header {
	if m.cart == nil {
		return nil
	}
	return m.cart.Header()
}

// Bus and CPU expose the wired core for tests and tools.
func (m *Machine) Bus() *bus.Bus { return m.bus }
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// StepFrame advances the machine by one video frame's worth of
// dot-clocks. Illegal opcodes surface as errors and stop the loop.
func (m *Machine) StepFrame() error {
	if m.cpu == nil {
		return fmt.Errorf("no cartridge loaded")
	}
	for dots := 0; dots < ppu.DotsPerFrame; {
		cycles, err := m.cpu.Step()
		if err != nil {
			return err
		}
		dots += cycles
	}
	return nil
}

// Frame returns the last completed frame of palette indices.
func (m *Machine) Frame() *[ppu.ScreenW * ppu.ScreenH]byte { return &m.frame }

// SetButtons applies the host button state, pressing and releasing the
// joypad on edges.
func (m *Machine) SetButtons(b Buttons) {
	if m.bus == nil {
		return
	}
	j := m.bus.Joypad()
	apply := func(prev, cur bool, btn joypad.Button) {
		switch {
		case cur && !prev:
			j.Press(btn)
		case !cur && prev:
			j.Release(btn)
		}
	}
	apply(m.prev.Right, b.Right, joypad.Right)
	apply(m.prev.Left, b.Left, joypad.Left)
	apply(m.prev.Up, b.Up, joypad.Up)
	apply(m.prev.Down, b.Down, joypad.Down)
	apply(m.prev.A, b.A, joypad.A)
	apply(m.prev.B, b.B, joypad.B)
	apply(m.prev.Select, b.Select, joypad.Select)
	apply(m.prev.Start, b.Start, joypad.Start)
	m.prev = b
}

// SaveBattery returns the external RAM contents when the cartridge is
// battery backed.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.cart == nil {
		return nil, false
	}
	switch m.cart.Header().CartType {
	case 0x03, 0x06, 0x09: // MBC1+RAM+BATTERY, MBC2+BATTERY, ROM+RAM+BATTERY
	default:
		return nil, false
	}
	if bb, ok := m.cart.(cart.BatteryBacked); ok {
		data := bb.SaveRAM()
		return data, len(data) > 0
	}
	return nil, false
}

// LoadBattery restores external RAM contents saved by SaveBattery.
func (m *Machine) LoadBattery(data []byte) bool {
	if bb, ok := m.cart.(cart.BatteryBacked); ok && len(data) > 0 {
		bb.LoadRAM(data)
		return true
	}
	return false
}
