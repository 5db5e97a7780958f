package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/abidiff/internal/ir"
)

// marshalDump converts a module to canonical JSON TEXT and its digest.
func marshalDump(m *ir.Module) (body, digest string, err error) {
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", "", fmt.Errorf("marshal dump: %w", err)
	}
	digest, err = ir.DumpDigest(m)
	if err != nil {
		return "", "", fmt.Errorf("marshal dump: %w", err)
	}
	return string(data), digest, nil
}

// unmarshalDump parses a stored dump body.
// Numbers are decoded with UseNumber-free int64 fields; dumps carry no floats.
func unmarshalDump(body string) (*ir.Module, error) {
	var m ir.Module
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal dump: %w", err)
	}
	return &m, nil
}
