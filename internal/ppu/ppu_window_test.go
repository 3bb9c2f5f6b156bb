package ppu

import "testing"

// solidTile paints tile n with a single solid color index.
func solidTile(p *PPU, n int, ci byte) {
	var lo, hi byte
	if ci&1 != 0 {
		lo = 0xFF
	}
	if ci&2 != 0 {
		hi = 0xFF
	}
	for row := 0; row < 8; row++ {
		p.vram[n*16+row*2] = lo
		p.vram[n*16+row*2+1] = hi
	}
}

func TestFrameWithWindowOverlay(t *testing.T) {
	p, _, _ := newTestPPU(t)
	solidTile(p, 0, 2) // BG everywhere: color 2
	solidTile(p, 1, 1) // window: color 1
	for i := 0x1C00; i < 0x2000; i++ {
		p.vram[i] = 1 // window map at 0x9C00
	}
	p.CPUWrite(0xFF47, 0xE4)
	p.CPUWrite(0xFF4A, 72) // WY: window on the lower half
	p.CPUWrite(0xFF4B, 87) // WX: starts at x=80
	// LCD on, window map 0x9C00, window on, 0x8000 tiles, BG on.
	p.CPUWrite(0xFF40, 0x80|0x40|0x20|0x10|0x01)

	p.Tick(DotsPerFrame)
	fb := p.Framebuffer()
	if got := fb[10*ScreenW+10]; got != 2 {
		t.Fatalf("BG pixel above window got %d want 2", got)
	}
	if got := fb[100*ScreenW+10]; got != 2 {
		t.Fatalf("BG pixel left of window got %d want 2", got)
	}
	if got := fb[100*ScreenW+120]; got != 1 {
		t.Fatalf("window pixel got %d want 1", got)
	}
	if got := fb[72*ScreenW+80]; got != 1 {
		t.Fatalf("window corner got %d want 1", got)
	}
}

func TestFrameWithSprites(t *testing.T) {
	p, _, _ := newTestPPU(t)
	solidTile(p, 2, 3)
	// One sprite at screen (4, 2).
	p.oam[0] = 18 // raw Y
	p.oam[1] = 12 // raw X
	p.oam[2] = 2
	p.oam[3] = 0
	p.CPUWrite(0xFF47, 0xE4)
	p.CPUWrite(0xFF48, 0xE4) // OBP0
	// LCD on, sprites on, 0x8000 tiles, BG on.
	p.CPUWrite(0xFF40, 0x80|0x10|0x02|0x01)

	p.Tick(DotsPerFrame)
	fb := p.Framebuffer()
	if got := fb[2*ScreenW+4]; got != 3 {
		t.Fatalf("sprite pixel got %d want 3", got)
	}
	if got := fb[2*ScreenW+12]; got != 0 {
		t.Fatalf("pixel right of sprite got %d want 0", got)
	}
	if got := fb[10*ScreenW+4]; got != 0 {
		t.Fatalf("pixel below sprite got %d want 0", got)
	}
}

func TestSpriteBehindBGPriority(t *testing.T) {
	p, _, _ := newTestPPU(t)
	solidTile(p, 0, 1) // BG: non-zero color everywhere
	solidTile(p, 2, 3)
	p.oam[0] = 16
	p.oam[1] = 8
	p.oam[2] = 2
	p.oam[3] = 0x80 // behind BG
	p.CPUWrite(0xFF47, 0xE4)
	p.CPUWrite(0xFF48, 0xE4)
	p.CPUWrite(0xFF40, 0x80|0x10|0x02|0x01)

	p.Tick(DotsPerFrame)
	if got := p.Framebuffer()[0]; got != 1 {
		t.Fatalf("behind-BG sprite should lose to non-zero BG, got %d", got)
	}
}
