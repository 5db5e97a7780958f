package store

import (
	"fmt"
	"strings"

	"github.com/roach88/abidiff/internal/report"
)

// Predicate is a condition on a runs column. Values are always bound as
// parameters, never interpolated.
type Predicate interface {
	predicate()
}

// Equals matches rows whose Field equals Value.
type Equals struct {
	Field string
	Value any
}

// And matches rows that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (Equals) predicate() {}
func (And) predicate()    {}

// runFields are the columns a Predicate may name.
var runFields = map[string]bool{
	"lib_name": true,
	"arch":     true,
	"status":   true,
	"breaking": true,
}

// RunFilter selects archived runs. Zero fields do not filter.
type RunFilter struct {
	LibName      string
	Arch         string
	Status       *report.CompatibilityStatus
	BreakingOnly bool
}

// Predicate returns the filter as a predicate tree.
func (f RunFilter) Predicate() Predicate {
	var and And
	if f.LibName != "" {
		and.Predicates = append(and.Predicates, Equals{Field: "lib_name", Value: f.LibName})
	}
	if f.Arch != "" {
		and.Predicates = append(and.Predicates, Equals{Field: "arch", Value: f.Arch})
	}
	if f.Status != nil {
		and.Predicates = append(and.Predicates, Equals{Field: "status", Value: f.Status.String()})
	}
	if f.BreakingOnly {
		and.Predicates = append(and.Predicates, Equals{Field: "breaking", Value: true})
	}
	return and
}

// compileRunQuery turns p into a SELECT over runs.
// Every query ends in ORDER BY seq ASC, id ASC COLLATE BINARY.
func compileRunQuery(p Predicate) (string, []any, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile run query: %w", err)
	}
	sql := "SELECT " + runColumns + " FROM runs"
	if where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY seq ASC, id ASC COLLATE BINARY"
	return sql, params, nil
}

// compilePredicate returns "" for a predicate that matches every row.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case Equals:
		if !runFields[pred.Field] {
			return "", nil, fmt.Errorf("unknown field %q", pred.Field)
		}
		return pred.Field + " = ?", []any{pred.Value}, nil
	case And:
		var parts []string
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			if sql == "" {
				continue
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
