package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// SharedObject returns a minimal little-endian ELF64 shared object whose
// dynamic symbol table exports functions as global STT_FUNC symbols and
// objects as global STT_OBJECT symbols. It carries no code; it exists to
// be read back by the symbol extractor.
func SharedObject(functions, objects []string) []byte {
	order := binary.LittleEndian
	write := func(w *bytes.Buffer, v any) {
		_ = binary.Write(w, order, v)
	}

	type sym struct {
		name string
		typ  elf.SymType
	}
	var syms []sym
	for _, name := range functions {
		syms = append(syms, sym{name, elf.STT_FUNC})
	}
	for _, name := range objects {
		syms = append(syms, sym{name, elf.STT_OBJECT})
	}

	shstrtab := []byte("\x00.shstrtab\x00.dynstr\x00.dynsym\x00")
	dynstr := []byte{0}
	var symtab bytes.Buffer
	write(&symtab, elf.Sym64{})
	for _, s := range syms {
		write(&symtab, elf.Sym64{
			Name:  uint32(len(dynstr)),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, s.typ),
			Other: uint8(elf.STV_DEFAULT),
			Shndx: 1,
			Value: 0x1000,
			Size:  8,
		})
		dynstr = append(dynstr, s.name...)
		dynstr = append(dynstr, 0)
	}

	const ehsize, shentsize = 64, 64
	pad := func(n int) int { return (n + 7) &^ 7 }
	shstrOff := ehsize
	dynstrOff := shstrOff + len(shstrtab)
	dynsymOff := pad(dynstrOff + len(dynstr))
	shOff := pad(dynsymOff + symtab.Len())

	sections := []elf.Section64{
		{},
		{Name: 1, Type: uint32(elf.SHT_STRTAB), Off: uint64(shstrOff), Size: uint64(len(shstrtab)), Addralign: 1},
		{Name: 11, Type: uint32(elf.SHT_STRTAB), Flags: uint64(elf.SHF_ALLOC), Off: uint64(dynstrOff), Size: uint64(len(dynstr)), Addralign: 1},
		{Name: 19, Type: uint32(elf.SHT_DYNSYM), Flags: uint64(elf.SHF_ALLOC), Link: 2, Info: 1,
			Off: uint64(dynsymOff), Size: uint64(symtab.Len()), Addralign: 8, Entsize: 24},
	}

	var out bytes.Buffer
	write(&out, elf.Header64{
		Ident:     [elf.EI_NIDENT]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)},
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     uint64(shOff),
		Ehsize:    ehsize,
		Shentsize: shentsize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  1,
	})
	out.Write(shstrtab)
	out.Write(dynstr)
	out.Write(make([]byte, dynsymOff-out.Len()))
	out.Write(symtab.Bytes())
	out.Write(make([]byte, shOff-out.Len()))
	for _, s := range sections {
		write(&out, s)
	}
	return out.Bytes()
}
