package cart

import "testing"

// mbc1ROM builds an image where the first byte of every 16 KiB bank holds
// the bank number.
func mbc1ROM(banks int, ramSize byte) (Cartridge, []byte) {
	var sizeCode byte
	switch banks {
	case 4:
		sizeCode = 0x01
	case 64:
		sizeCode = 0x05
	case 128:
		sizeCode = 0x06
	default:
		sizeCode = 0x01
		banks = 4
	}
	rom := make([]byte, banks*0x4000)
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	rom[0x0147] = 0x02 // MBC1+RAM
	rom[0x0148] = sizeCode
	rom[0x0149] = ramSize
	h, err := ParseHeader(rom)
	if err != nil {
		panic(err)
	}
	return New(rom, h), rom
}

func TestMBC1DefaultBanks(t *testing.T) {
	c, _ := mbc1ROM(4, 0x00)
	if got := c.Read(0x0000); got != 0x00 {
		t.Fatalf("bank0 got %02x want 00", got)
	}
	// Switchable window defaults to bank 1.
	if got := c.Read(0x4000); got != 0x01 {
		t.Fatalf("active bank got %02x want 01", got)
	}
}

func TestMBC1BankSwitch(t *testing.T) {
	c, _ := mbc1ROM(4, 0x00)
	c.Write(0x2000, 0x03)
	if got := c.Read(0x4000); got != 0x03 {
		t.Fatalf("after select 3, active bank got %02x want 03", got)
	}
}

func TestMBC1BankZeroRemaps(t *testing.T) {
	c, _ := mbc1ROM(4, 0x00)
	c.Write(0x2000, 0x00)
	if got := c.Read(0x4000); got != 0x01 {
		t.Fatalf("bank 0 select must map to 1, got %02x", got)
	}
}

func TestMBC1ForbiddenBanksReadNextUp(t *testing.T) {
	c, _ := mbc1ROM(128, 0x00)
	// Selecting 0x20/0x40/0x60 lands on the next bank up: the low-5
	// register holds 0 in each case and remaps to 1.
	for _, want := range []byte{0x21, 0x41, 0x61} {
		c.Write(0x2000, 0x00)
		c.Write(0x4000, want>>5)
		if got := c.Read(0x4000); got != want {
			t.Fatalf("high bits %d low5 0: active bank got %02x want %02x", want>>5, got, want)
		}
	}
}

func TestMBC1RAMEnableAndBanking(t *testing.T) {
	c, _ := mbc1ROM(4, 0x03) // 32 KiB RAM
	// Disabled RAM reads 0xFF and swallows writes.
	if got := c.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02x want FF", got)
	}
	c.Write(0xA000, 0x12)
	c.Write(0x0000, 0x0A) // enable
	if got := c.Read(0xA000); got != 0x00 {
		t.Fatalf("write while disabled must not stick, got %02x", got)
	}

	c.Write(0xA000, 0x34)
	if got := c.Read(0xA000); got != 0x34 {
		t.Fatalf("RAM read got %02x want 34", got)
	}

	// Mode 1 selects RAM banks through the 4000-5FFF register.
	c.Write(0x6000, 0x01)
	c.Write(0x4000, 0x02)
	c.Write(0xA000, 0x56)
	if got := c.Read(0xA000); got != 0x56 {
		t.Fatalf("bank 2 read got %02x want 56", got)
	}
	c.Write(0x4000, 0x00)
	if got := c.Read(0xA000); got != 0x34 {
		t.Fatalf("bank 0 should still hold 34, got %02x", got)
	}
}

func TestMBC1ControlWritesDoNotMutateROM(t *testing.T) {
	c, rom := mbc1ROM(4, 0x00)
	c.Write(0x2000, 0x02)
	c.Write(0x3123, 0x7F)
	for b := 0; b < 4; b++ {
		if rom[b*0x4000] != byte(b) {
			t.Fatalf("ROM bank %d mutated", b)
		}
	}
	_ = c
}

func TestMBC1BatteryRoundTrip(t *testing.T) {
	c, _ := mbc1ROM(4, 0x02)
	c.Write(0x0000, 0x0A)
	c.Write(0xA010, 0x99)
	bb := c.(BatteryBacked)
	data := bb.SaveRAM()
	if len(data) != 8*1024 {
		t.Fatalf("SaveRAM length got %d want 8192", len(data))
	}

	c2, _ := mbc1ROM(4, 0x02)
	c2.(BatteryBacked).LoadRAM(data)
	c2.Write(0x0000, 0x0A)
	if got := c2.Read(0xA010); got != 0x99 {
		t.Fatalf("restored RAM got %02x want 99", got)
	}
}
