package results

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDescriptor is returned when a batch descriptor lists no HITs.
var ErrEmptyDescriptor = errors.New("batch descriptor is empty")

// MissingFieldsError reports every required field absent from an input.
type MissingFieldsError struct {
	Source string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Source, strings.Join(e.Fields, ", "))
}
