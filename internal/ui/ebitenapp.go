// Package ui hosts the emulator in an ebiten window: keyboard input,
// frame pacing, and the grayscale present path.
package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"dmge/internal/emu"
	"dmge/internal/ppu"
)

// grayscale maps the four palette indices to display shades.
var grayscale = [4][4]byte{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
	{0x55, 0x55, 0x55, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

// App runs the machine under ebiten's game loop.
type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	pix    []byte // RGBA staging buffer
	paused bool

	lastTime time.Time
	frameAcc float64

	stepErr error
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(ppu.ScreenW*cfg.Scale, ppu.ScreenH*cfg.Scale)
	return &App{
		cfg:      cfg,
		m:        m,
		pix:      make([]byte, ppu.ScreenW*ppu.ScreenH*4),
		lastTime: time.Now(),
	}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	if a.stepErr != nil {
		return a.stepErr
	}

	// Quit key ends the game loop cleanly.
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
		a.lastTime = time.Now()
		a.frameAcc = 0
	}

	var btn emu.Buttons
	btn.Right = ebiten.IsKeyPressed(ebiten.KeyArrowRight)
	btn.Left = ebiten.IsKeyPressed(ebiten.KeyArrowLeft)
	btn.Up = ebiten.IsKeyPressed(ebiten.KeyArrowUp)
	btn.Down = ebiten.IsKeyPressed(ebiten.KeyArrowDown)
	btn.A = ebiten.IsKeyPressed(ebiten.KeyControlLeft)
	btn.B = ebiten.IsKeyPressed(ebiten.KeySpace)
	btn.Start = ebiten.IsKeyPressed(ebiten.KeyEnter)
	btn.Select = ebiten.IsKeyPressed(ebiten.KeyBackspace)
	a.m.SetButtons(btn)

	if a.paused {
		return nil
	}

	// Run at the hardware's ~59.7275 FPS with a time accumulator,
	// decoupled from ebiten's tick rate.
	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	a.lastTime = now
	gbFps := 4194304.0 / float64(ppu.DotsPerFrame)
	a.frameAcc += dt * gbFps
	for steps := 0; a.frameAcc >= 1.0 && steps < 4; steps++ {
		if err := a.m.StepFrame(); err != nil {
			// Surface the diagnostic on the next Update so the final frame
			// still presents.
			a.stepErr = err
		}
		a.frameAcc -= 1.0
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.ScreenW, ppu.ScreenH)
	}
	frame := a.m.Frame()
	for i, ci := range frame {
		copy(a.pix[i*4:], grayscale[ci&3][:])
	}
	a.tex.WritePixels(a.pix)
	screen.DrawImage(a.tex, nil)

	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (P to resume)", 4, 4)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return ppu.ScreenW, ppu.ScreenH }
