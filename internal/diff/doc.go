// Package diff compares two ABI type graphs.
//
// Two layers are provided:
//
//   - DiffSymbols compares exported ELF symbol sets by name.
//   - Session compares functions, global variables and the types they
//     reach, recursing through pointers, references, typedefs, qualifiers
//     and record fields.
//
// Run drives both layers over two complete graphs and returns a report.
//
// # Recursion and cycles
//
// Type graphs may be cyclic (struct Node { Node *next; }). A Session keeps a
// visited set keyed by the pair of self type ids being compared. A pair
// that is still being compared higher up the stack compares as NoDiff,
// which cuts the cycle; a pair already finished returns its earlier result
// without emitting its diff a second time.
//
// # Severity
//
// DirectDiff means the two types are not interchangeable at all (different
// builtin, different qualifiers, a different record in the slot). A record
// or enum whose contents changed reports its own diff message and returns
// IndirectDiff to the referrer, so a function taking a pointer to a changed
// struct is not itself reported as changed. Function and global variable
// diffs are emitted only for DirectDiff parameter, return or variable types.
//
// # Ordering
//
// Everything is compared in old-dump declaration order; added entities
// follow in new-dump order. Equal inputs produce byte-identical reports.
package diff
