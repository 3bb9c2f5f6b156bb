// Command dmge runs the emulator: dmge [flags] ROM
//
// The ROM path may also name a .zip/.gz/.7z archive. Without a positional
// argument a native file picker is offered, except in headless mode,
// which then exits with a usage error. Headless mode runs a fixed
// number of frames and can assert an xxhash64 fingerprint of the final
// framebuffer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/sqweek/dialog"

	"dmge/internal/cart"
	"dmge/internal/emu"
	"dmge/internal/ppu"
	"dmge/internal/ui"
)

type cliFlags struct {
	ROMPath  string
	Scale    int
	Title    string
	SkipBoot bool
	SaveRAM  bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer xxhash64 (hex)
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "dmge", "window title")
	flag.BoolVar(&f.SkipBoot, "skipboot", false, "start from the post-boot state")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer xxhash64 (hex)")
	flag.Parse()

	f.ROMPath = flag.Arg(0)
	return f
}

func runHeadless(m *emu.Machine, frames int, pngPath, expect string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	frame := m.Frame()
	sum := xxhash.Sum64(frame[:])
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_xxh64=%016x",
		frames, dur.Truncate(time.Millisecond), fps, sum)

	if pngPath != "" {
		if err := saveFramePNG(frame, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expect != "" {
		want := strings.TrimPrefix(strings.ToLower(expect), "0x")
		got := fmt.Sprintf("%016x", sum)
		if got != want {
			return fmt.Errorf("fingerprint mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

var grayshades = [4]byte{0xFF, 0xAA, 0x55, 0x00}

func saveFramePNG(frame *[ppu.ScreenW * ppu.ScreenH]byte, path string) error {
	img := image.NewGray(image.Rect(0, 0, ppu.ScreenW, ppu.ScreenH))
	for i, ci := range frame {
		img.Pix[i] = grayshades[ci&3]
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func savPath(romPath string) string {
	for _, ext := range []string{".gb", ".zip", ".gz", ".7z"} {
		if strings.HasSuffix(strings.ToLower(romPath), ext) {
			return romPath[:len(romPath)-len(ext)] + ".sav"
		}
	}
	return romPath + ".sav"
}

func main() {
	f := parseFlags()

	if f.ROMPath == "" && !f.Headless {
		path, err := dialog.File().Title("Open ROM").Filter("Game Boy ROM", "gb", "zip", "gz", "7z").Load()
		if err != nil {
			log.Fatal("no ROM given")
		}
		f.ROMPath = path
	}
	if f.ROMPath == "" {
		log.Fatal("usage: dmge [flags] ROM")
	}

	m := emu.New(emu.Config{SkipBoot: f.SkipBoot})
	if err := m.LoadROMFromFile(f.ROMPath); err != nil {
		if errors.Is(err, cart.ErrInvalidHeader) {
			log.Fatalf("load cart: %v", err)
		}
		log.Fatalf("read ROM: %v", err)
	}
	if h := m.Header(); h != nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	var sav string
	if f.SaveRAM {
		sav = savPath(f.ROMPath)
		if data, err := os.ReadFile(sav); err == nil {
			if m.LoadBattery(data) {
				log.Printf("loaded save RAM: %s (%d bytes)", sav, len(data))
			}
		}
	}

	writeBattery := func() {
		if !f.SaveRAM {
			return
		}
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(sav, data, 0644); err == nil {
				log.Printf("wrote %s", sav)
			}
		}
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		writeBattery()
		return
	}

	app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	writeBattery()
}
