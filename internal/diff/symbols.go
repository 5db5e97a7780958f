package diff

import "github.com/roach88/abidiff/internal/ir"

// SymbolDiff is the difference between two exported symbol sets.
// Every list is sorted by name.
type SymbolDiff struct {
	RemovedFunctions []ir.ElfSymbol
	AddedFunctions   []ir.ElfSymbol
	RemovedObjects   []ir.ElfSymbol
	AddedObjects     []ir.ElfSymbol
}

// Breaking reports whether a symbol was removed.
func (d SymbolDiff) Breaking() bool {
	return len(d.RemovedFunctions) > 0 || len(d.RemovedObjects) > 0
}

// Empty reports whether the sets were identical by name.
func (d SymbolDiff) Empty() bool {
	return !d.Breaking() && len(d.AddedFunctions) == 0 && len(d.AddedObjects) == 0
}

// DiffSymbols compares two symbol sets by name. A nil set counts as empty.
// Bindings are carried through but not compared.
func DiffSymbols(old, new *ir.ExportedSymbolSet) SymbolDiff {
	if old == nil {
		old = ir.NewExportedSymbolSet()
	}
	if new == nil {
		new = ir.NewExportedSymbolSet()
	}
	return SymbolDiff{
		RemovedFunctions: missingFrom(old.SortedFunctions(), new.Functions),
		AddedFunctions:   missingFrom(new.SortedFunctions(), old.Functions),
		RemovedObjects:   missingFrom(old.SortedObjects(), new.Objects),
		AddedObjects:     missingFrom(new.SortedObjects(), old.Objects),
	}
}

func missingFrom(syms []ir.ElfSymbol, other map[string]ir.ElfSymbol) []ir.ElfSymbol {
	out := []ir.ElfSymbol{}
	for _, s := range syms {
		if _, ok := other[s.Name]; !ok {
			out = append(out, s)
		}
	}
	return out
}
