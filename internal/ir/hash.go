package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDump   = "abidiff/dump/v1"
	DomainReport = "abidiff/report/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DumpDigest computes the content address of a module.
// Two dumps with the same canonical form share a digest regardless of the
// whitespace or key order of the files they were read from.
func DumpDigest(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("DumpDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDump, canonical), nil
}

// ReportDigest computes the content address of an already canonical report.
func ReportDigest(canonical []byte) string {
	return hashWithDomain(DomainReport, canonical)
}

// MustDumpDigest is like DumpDigest but panics on error.
// Use only in tests or when the module is known to be valid.
func MustDumpDigest(m *Module) string {
	digest, err := DumpDigest(m)
	if err != nil {
		panic(err)
	}
	return digest
}
