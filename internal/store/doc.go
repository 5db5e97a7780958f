// Package store archives dumps and comparison runs in SQLite.
//
// Two tables are kept:
//   - dumps: canonical dump bodies, content addressed by ir.DumpDigest
//   - runs: one row per comparison with its canonical report
//
// Dumps are written idempotently, so archiving the same reference dump for
// many runs stores it once.
//
// # Ordering
//
// Runs carry a logical sequence number assigned on insert. Listings use
// ORDER BY seq ASC, id ASC COLLATE BINARY and never depend on wall time,
// so two archives built from the same runs list identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Runs must reference archived dumps
package store
