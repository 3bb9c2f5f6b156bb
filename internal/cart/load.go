package cart

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// Load reads a ROM file, transparently unpacking .zip/.gz/.7z containers,
// parses the header and constructs the matching cartridge implementation.
func Load(path string) (Cartridge, error) {
	rom, err := LoadROMFile(path)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(rom, h), nil
}

// LoadROMFile returns the raw ROM bytes at path, decompressing when the
// extension says the file is a container. Inside an archive the first
// entry with a .gb extension wins, falling back to the first entry.
func LoadROMFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".zip":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", path, err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("zip %s: empty archive", path)
		}
		entry := zr.File[0]
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".gb") {
				entry = f
				break
			}
		}
		f, err := entry.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	case ".7z":
		sr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("7z %s: %w", path, err)
		}
		if len(sr.File) == 0 {
			return nil, fmt.Errorf("7z %s: empty archive", path)
		}
		entry := sr.File[0]
		for _, f := range sr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".gb") {
				entry = f
				break
			}
		}
		f, err := entry.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	default:
		return data, nil
	}
}
