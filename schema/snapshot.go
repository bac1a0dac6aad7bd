package schema

import (
	"encoding/json"
	"fmt"
)

// Serialize renders a schema snapshot as JSON for storage, so a later run
// can diff a live database against a recorded state.
func Serialize(s *Schema) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	return data, nil
}

// Deserialize parses a stored snapshot.
func Deserialize(data []byte) (*Schema, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize schema: %w", err)
	}
	if s.Tables == nil {
		s.Tables = map[string]*Table{}
	}
	if s.Procs == nil {
		s.Procs = map[string]*Procedure{}
	}
	return &s, nil
}
