// Package elfsym extracts the exported dynamic symbols of a shared object.
//
// Only the dynamic symbol table (.dynsym) is read: symbols that live only in
// the static table are invisible to dynamic linking and cannot be part of
// the library's ABI. debug/elf decodes all four record layouts
// (ELFCLASS32/64, little/big endian) from the ELF identification bytes.
package elfsym

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/abidiff/internal/ir"
)

// Extract reads the exported symbols of the ELF file at path.
//
// A missing or unreadable file is an input error and is returned as such.
// A file that exists but cannot be parsed as ELF yields (nil, nil): the
// caller decides whether an unusable binary is fatal.
func Extract(path string) (*ir.ExportedSymbolSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	set := ExtractReader(f)
	if set == nil {
		slog.Debug("no ELF parser for input", "path", path)
	}
	return set, nil
}

// ExtractReader reads the exported symbols from an ELF image.
// Returns nil when r is not a parsable ELF image.
func ExtractReader(r io.ReaderAt) (set *ir.ExportedSymbolSet) {
	// debug/elf can panic on hostile section headers
	defer func() {
		if rec := recover(); rec != nil {
			slog.Debug("ELF parser panic", "panic", fmt.Sprint(rec))
			set = nil
		}
	}()

	f, err := elf.NewFile(r)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	syms, err := f.DynamicSymbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return ir.NewExportedSymbolSet()
		}
		return nil
	}

	return classify(syms)
}

// classify builds the exported set from raw dynamic symbols.
func classify(syms []elf.Symbol) *ir.ExportedSymbolSet {
	set := ir.NewExportedSymbolSet()
	for _, s := range syms {
		binding, ok := exportedBinding(s)
		if !ok {
			continue
		}
		sym := ir.ElfSymbol{Name: s.Name, Binding: binding}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC:
			set.Functions[s.Name] = sym
		case elf.STT_OBJECT:
			set.Objects[s.Name] = sym
		}
	}
	return set
}

// exportedBinding reports whether s is exported and with which binding.
// Exported means GLOBAL or WEAK binding, DEFAULT or PROTECTED visibility,
// and defined in some section of this object.
func exportedBinding(s elf.Symbol) (ir.ElfBinding, bool) {
	var binding ir.ElfBinding
	switch elf.ST_BIND(s.Info) {
	case elf.STB_GLOBAL:
		binding = ir.BindingGlobal
	case elf.STB_WEAK:
		binding = ir.BindingWeak
	default:
		return "", false
	}

	switch elf.ST_VISIBILITY(s.Other) {
	case elf.STV_DEFAULT, elf.STV_PROTECTED:
	default:
		return "", false
	}

	if s.Section == elf.SHN_UNDEF {
		return "", false
	}
	return binding, true
}
