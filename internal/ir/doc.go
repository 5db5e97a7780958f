// Package ir provides the ABI type-graph model for abidiff.
//
// A Module is the decoded form of one dump: flat lists of types, functions
// and global variables that refer to each other by graph-local self type
// ids. A Graph indexes a Module for O(1) reference resolution (by self type)
// and O(1) cross-dump joins (by linker_set_key).
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - References between types are string handles, never pointers, so cyclic
//     graphs (a struct holding a pointer to itself) need no special casing
//   - self_type ids are only meaningful inside one dump; linker_set_key is the
//     only key used to match entities across dumps
//   - Field, parameter and enumerator order is part of the ABI
//   - NO float types anywhere - sizes, offsets and values are int64
//   - All JSON tags use snake_case and match the dump format
package ir
