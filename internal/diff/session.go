package diff

import (
	"fmt"
	"log/slog"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

// Session holds the state of one comparison: both graphs, the visited
// pair set, the current path and the report sink.
//
// A Session belongs to a single run. It is not safe for concurrent use and
// must not be reused for another pair of graphs.
type Session struct {
	old, new *ir.Graph
	sink     *report.Assembler
	visited  *visitedSet
	logger   *slog.Logger

	path []string
	kind report.DiffKind
}

// NewSession creates a session comparing old against new that reports into
// sink. A nil logger uses slog.Default().
func NewSession(old, new *ir.Graph, sink *report.Assembler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		old:     old,
		new:     new,
		sink:    sink,
		visited: newVisitedSet(),
		logger:  logger,
		kind:    report.Referenced,
	}
}

// Compared returns the number of distinct type pairs compared so far.
func (s *Session) Compared() int {
	return s.visited.Len()
}

func (s *Session) push(name string) {
	s.path = append(s.path, name)
}

func (s *Session) pop() {
	s.path = s.path[:len(s.path)-1]
}

// withKind runs fn with diff messages routed as kind.
func (s *Session) withKind(kind report.DiffKind, fn func() error) error {
	prev := s.kind
	s.kind = kind
	defer func() { s.kind = prev }()
	return fn()
}

// emit hands d to the report sink at the current path.
func (s *Session) emit(d report.Diff) error {
	return s.emitAs(d, s.kind)
}

func (s *Session) emitAs(d report.Diff, kind report.DiffKind) error {
	if !s.sink.AddDiffMessage(d, s.path, kind) {
		return &Error{
			Code:    ErrCodeInconsistentReport,
			Message: fmt.Sprintf("report rejected %T as %s", d, kind),
			Path:    append([]string(nil), s.path...),
		}
	}
	return nil
}
