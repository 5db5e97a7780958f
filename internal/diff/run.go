package diff

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

// Options configure Run.
type Options struct {
	// CheckAllAPIs also reports records and enums that disappeared from the
	// new dump even though nothing exported reaches them.
	CheckAllAPIs bool

	LibName string
	Arch    string

	// Logger receives progress messages. Nil uses slog.Default().
	Logger *slog.Logger
}

// Run compares old against new and returns the assembled report.
//
// The order of comparison is fixed: functions, global variables, plain ELF
// symbols, then every record and enum the dumps share. Errors are fatal
// input problems (a dangling type reference); ABI differences are never
// errors. ctx is checked between top level entities.
func Run(ctx context.Context, old, new *ir.Graph, opts Options) (*report.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	asm := report.NewAssembler(old, new, opts.LibName, opts.Arch)
	s := NewSession(old, new, asm, logger)

	if err := s.diffFunctions(ctx); err != nil {
		return nil, err
	}
	if err := s.diffGlobalVars(ctx); err != nil {
		return nil, err
	}
	if err := s.diffPlainSymbols(); err != nil {
		return nil, err
	}
	if err := s.diffUserTypes(ctx); err != nil {
		return nil, err
	}
	if opts.CheckAllAPIs {
		if err := s.diffRemovedTypes(); err != nil {
			return nil, err
		}
	}

	r := asm.Report()
	logger.Info("comparison finished",
		"lib", opts.LibName,
		"status", r.CompatibilityStatus.String(),
		"entries", r.Len(),
		"type_pairs", s.Compared())
	return r, nil
}

func (s *Session) diffFunctions(ctx context.Context) error {
	oldFns := s.old.Module().Functions
	for i := range oldFns {
		if err := ctx.Err(); err != nil {
			return err
		}
		of := &oldFns[i]
		nf, ok := s.new.Function(of.Key())
		if ok {
			if err := s.CompareFunctions(of, nf); err != nil {
				return fmt.Errorf("comparing function %s: %w", of.FunctionName, err)
			}
			continue
		}
		if _, exported := s.new.Symbols().Functions[of.Key()]; exported {
			// Still exported; only the declaration left the headers.
			s.logger.Debug("function has no declaration but is still exported", "function", of.FunctionName)
			continue
		}
		if err := s.emitAs(&report.FunctionDiff{Old: of}, report.Removed); err != nil {
			return err
		}
	}

	newFns := s.new.Module().Functions
	for i := range newFns {
		nf := &newFns[i]
		if _, ok := s.old.Function(nf.Key()); ok {
			continue
		}
		if err := s.emitAs(&report.FunctionDiff{New: nf}, report.Added); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) diffGlobalVars(ctx context.Context) error {
	oldVars := s.old.Module().GlobalVars
	for i := range oldVars {
		if err := ctx.Err(); err != nil {
			return err
		}
		ov := &oldVars[i]
		nv, ok := s.new.GlobalVar(ov.Key())
		if ok {
			if err := s.CompareGlobalVars(ov, nv); err != nil {
				return fmt.Errorf("comparing global variable %s: %w", ov.Name, err)
			}
			continue
		}
		if _, exported := s.new.Symbols().Objects[ov.Key()]; exported {
			s.logger.Debug("global variable has no declaration but is still exported", "var", ov.Name)
			continue
		}
		if err := s.emitAs(&report.GlobalVarDiff{Old: ov}, report.Removed); err != nil {
			return err
		}
	}

	newVars := s.new.Module().GlobalVars
	for i := range newVars {
		nv := &newVars[i]
		if _, ok := s.old.GlobalVar(nv.Key()); ok {
			continue
		}
		if err := s.emitAs(&report.GlobalVarDiff{New: nv}, report.Added); err != nil {
			return err
		}
	}
	return nil
}

// diffPlainSymbols compares the ELF symbols that neither dump describes
// with a function or global variable declaration.
func (s *Session) diffPlainSymbols() error {
	covered := make(map[string]bool)
	for _, g := range []*ir.Graph{s.old, s.new} {
		for i := range g.Module().Functions {
			covered[g.Module().Functions[i].Key()] = true
		}
		for i := range g.Module().GlobalVars {
			covered[g.Module().GlobalVars[i].Key()] = true
		}
	}

	sd := DiffSymbols(uncovered(s.old.Symbols(), covered), uncovered(s.new.Symbols(), covered))
	emit := func(syms []ir.ElfSymbol, object bool, kind report.DiffKind) error {
		for _, sym := range syms {
			if err := s.emitAs(&report.ElfSymbolDiff{Symbol: sym, Object: object}, kind); err != nil {
				return err
			}
		}
		return nil
	}
	if err := emit(sd.RemovedFunctions, false, report.Removed); err != nil {
		return err
	}
	if err := emit(sd.AddedFunctions, false, report.Added); err != nil {
		return err
	}
	if err := emit(sd.RemovedObjects, true, report.Removed); err != nil {
		return err
	}
	return emit(sd.AddedObjects, true, report.Added)
}

func uncovered(set *ir.ExportedSymbolSet, covered map[string]bool) *ir.ExportedSymbolSet {
	out := ir.NewExportedSymbolSet()
	for name, sym := range set.Functions {
		if !covered[name] {
			out.Functions[name] = sym
		}
	}
	for name, sym := range set.Objects {
		if !covered[name] {
			out.Objects[name] = sym
		}
	}
	return out
}

// diffUserTypes compares every record and enum present in both dumps.
// diffUserTypes compares every record and enum the dumps share, joined
// by kind and linker_set_key. Pairs already reached from functions or
// variables are not reported again.
func (s *Session) diffUserTypes(ctx context.Context) error {
	for _, oe := range s.old.UserTypes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ne, ok := s.new.Lookup(oe.Kind, oe.LinkerSetKey())
		if !ok {
			continue
		}
		var err error
		switch oe.Kind {
		case ir.EntityRecord:
			_, err = s.CompareRecords(oe.Record, ne.Record)
		case ir.EntityEnum:
			_, err = s.CompareEnums(oe.Enum, ne.Enum)
		}
		if err != nil {
			return fmt.Errorf("comparing %s %s: %w", oe.Kind, oe.Name(), err)
		}
	}
	return nil
}

func (s *Session) diffRemovedTypes() error {
	for _, oe := range s.old.UserTypes() {
		if _, ok := s.new.Lookup(oe.Kind, oe.LinkerSetKey()); ok {
			continue
		}
		var d report.Diff
		switch oe.Kind {
		case ir.EntityRecord:
			d = &report.RecordDiff{Old: oe.Record}
		case ir.EntityEnum:
			d = &report.EnumDiff{Old: oe.Enum}
		default:
			continue
		}
		if err := s.emitAs(d, report.Removed); err != nil {
			return err
		}
	}
	return nil
}
