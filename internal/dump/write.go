package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/roach88/abidiff/internal/ir"
)

// Marshal encodes m as indented JSON. Field order follows the struct
// definitions and list order follows the dump, so equal modules always
// encode to equal bytes. Template names keep their angle brackets.
func Marshal(m *ir.Module) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("marshaling dump: %w", err)
	}
	return buf.Bytes(), nil
}

// Write writes m to path as indented JSON.
func Write(path string, m *ir.Module) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	return nil
}
