package dump

import (
	"fmt"
	"strings"

	"github.com/roach88/abidiff/internal/ir"
)

// TypeCycle is a strongly connected group of types that refer to each
// other, such as a linked list node pointing at itself.
//
// Recursive types are legal C and C++; cycles are reported for
// information so that a reader of a dump knows where the diff will hit its
// visited set.
type TypeCycle struct {
	Path    []string `json:"path"` // type names, first repeated at the end
	Message string   `json:"message"`
}

// reference is one edge of the type graph: from self type to self type.
// Functions and global variables are not types and never take part.
type reference struct {
	from, to string
}

// references lists the edges of m in dump order.
func references(m *ir.Module) []reference {
	var refs []reference
	add := func(from, to string) {
		refs = append(refs, reference{from: from, to: to})
	}

	for _, t := range m.Types() {
		info := t.Info()
		if info.ReferencedType != "" {
			add(info.SelfType, info.ReferencedType)
		}
		switch v := t.(type) {
		case *ir.RecordType:
			for _, f := range v.Fields {
				add(info.SelfType, f.ReferencedType)
			}
			for _, b := range v.BaseSpecifiers {
				add(info.SelfType, b.ReferencedType)
			}
			if v.TemplateInfo != nil {
				for _, e := range v.TemplateInfo.Elements {
					add(info.SelfType, e.ReferencedType)
				}
			}
		case *ir.EnumType:
			add(info.SelfType, v.UnderlyingType)
		case *ir.FunctionType:
			add(info.SelfType, v.ReturnType)
			for _, p := range v.Parameters {
				add(info.SelfType, p.FieldType)
			}
		}
	}

	for _, f := range m.Functions {
		add("", f.ReturnType)
		for _, p := range f.Parameters {
			add("", p.FieldType)
		}
	}
	for _, v := range m.GlobalVars {
		add("", v.ReferencedType)
	}
	return refs
}

// AnalyzeCycles finds recursive type groups in m.
//
// It runs Tarjan's algorithm over the type reference graph. Nodes are
// visited in dump order so the output is deterministic. An acyclic dump
// returns an empty slice.
func AnalyzeCycles(m *ir.Module) []TypeCycle {
	graph := make(map[string][]string)
	var order []string
	names := make(map[string]string)
	for _, t := range m.Types() {
		info := t.Info()
		if _, seen := names[info.SelfType]; !seen {
			order = append(order, info.SelfType)
		}
		names[info.SelfType] = info.Name
	}
	for _, ref := range references(m) {
		if ref.from == "" || ref.to == "" {
			continue
		}
		if _, ok := names[ref.to]; !ok {
			continue
		}
		graph[ref.from] = append(graph[ref.from], ref.to)
	}

	cycles := []TypeCycle{}
	for _, scc := range tarjanSCC(order, graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		path := reconstructCyclePath(scc, graph)
		named := make([]string, len(path))
		for i, id := range path {
			named[i] = names[id]
		}
		cycles = append(cycles, TypeCycle{
			Path:    named,
			Message: fmt.Sprintf("recursive type: %s", strings.Join(named, " -> ")),
		})
	}
	return cycles
}

func hasSelfLoop(node string, graph map[string][]string) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in order.
func tarjanSCC(order []string, graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			// Popped in reverse discovery order.
			for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
				scc[i], scc[j] = scc[j], scc[i]
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside scc from its first member until
// it returns to the start.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
