package results

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// BatchEntry identifies one published HIT in a batch descriptor ("success file").
type BatchEntry struct {
	HITID     string `yaml:"HITId"`
	HITTypeID string `yaml:"HITTypeId"`
}

// ReadDescriptor decodes a YAML batch descriptor. Every entry must carry a HIT id.
func ReadDescriptor(r io.Reader) ([]BatchEntry, error) {
	var entries []BatchEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDescriptor
		}
		return nil, fmt.Errorf("decode batch descriptor: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDescriptor
	}
	var missing []string
	for i, e := range entries {
		if strings.TrimSpace(e.HITID) == "" {
			missing = append(missing, fmt.Sprintf("[%d].HITId", i))
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Source: "batch descriptor", Fields: missing}
	}
	return entries, nil
}

// WriteDescriptor encodes entries as a YAML batch descriptor.
func WriteDescriptor(w io.Writer, entries []BatchEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode batch descriptor: %w", err)
	}
	return enc.Close()
}

// HITIDs returns the HIT ids of entries in order.
func HITIDs(entries []BatchEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.HITID
	}
	return out
}
