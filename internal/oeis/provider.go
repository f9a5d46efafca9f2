// Package oeis implements depmanager.ProgramProvider over the on-disk
// layout spec section 6 names: program ID k lives at
// "<root>/programs/oeis/NNN/A0NNNNNN.asm", NNN the zero-padded thousands
// prefix of k. This is infrastructure for reading that layout, not the
// OEIS fetching/mining machinery spec section 1 keeps out of scope (no
// network access, no mutation, no TOML config parsing happens here).
//
// Grounded on gameboy-emulator's cartridge.LoadROMFromFile
// (internal/cartridge/loader.go): a thin os.ReadFile-based loader with a
// NotFound-shaped error on a missing path.
package oeis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loda-lang/loda-go/internal/loderrors"
)

// DirProvider reads program source from a directory tree rooted at Root.
type DirProvider struct {
	Root string
}

// NewDirProvider returns a DirProvider rooted at root.
func NewDirProvider(root string) *DirProvider {
	return &DirProvider{Root: root}
}

// Path returns the file path id's source is expected at, without
// checking for its existence.
func (p *DirProvider) Path(id int64) string {
	thousands := id / 1000
	return filepath.Join(p.Root, "programs", "oeis",
		fmt.Sprintf("%03d", thousands),
		fmt.Sprintf("A0%06d.asm", id))
}

// Source implements depmanager.ProgramProvider.
func (p *DirProvider) Source(id int64) (string, error) {
	path := p.Path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &loderrors.LoadError{Kind: loderrors.NotFound, ID: id, Detail: "no program file at " + path}
		}
		return "", &loderrors.LoadError{Kind: loderrors.IOError, ID: id, Detail: "reading " + path, Cause: err}
	}
	return string(data), nil
}
