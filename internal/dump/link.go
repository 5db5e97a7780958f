package dump

import (
	"log/slog"

	"github.com/roach88/abidiff/internal/ir"
)

// Link turns a front end dump into a reference dump for one binary.
//
// Functions and global variables whose key is not exported by the binary
// are dropped (they were declared in a header but never compiled in), and
// the binary's ELF symbols replace whatever symbol lists the dump carried.
// Types are kept whole: unreachable types cost nothing in the diff.
// m is not modified.
func Link(m *ir.Module, syms *ir.ExportedSymbolSet) *ir.Module {
	linked := *m

	linked.Functions = make([]ir.Function, 0, len(m.Functions))
	for _, f := range m.Functions {
		if _, ok := syms.Functions[f.Key()]; ok {
			linked.Functions = append(linked.Functions, f)
			continue
		}
		slog.Debug("dropping unexported function", "function", f.FunctionName, "key", f.Key())
	}

	linked.GlobalVars = make([]ir.GlobalVar, 0, len(m.GlobalVars))
	for _, v := range m.GlobalVars {
		if _, ok := syms.Objects[v.Key()]; ok {
			linked.GlobalVars = append(linked.GlobalVars, v)
			continue
		}
		slog.Debug("dropping unexported global variable", "name", v.Name, "key", v.Key())
	}

	linked.SetExportedSymbols(syms)
	return &linked
}
