package resource

import (
	"bytes"
	"fmt"
)

// A DuplicateIDError is returned when a node is declared with an id that has
// already been registered.
type DuplicateIDError struct {
	ID string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("resource %q already declared", e.ID)
}

// An UnknownResourceError is returned when a node id cannot be found in the
// registry, either on direct lookup or while resolving a reference.
//
// If a close match exists among the registered ids, Suggestion contains it.
type UnknownResourceError struct {
	ID         string
	Suggestion string
}

func (e UnknownResourceError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "resource %q not found", e.ID)
	if e.Suggestion != "" {
		fmt.Fprintf(&buf, ", did you mean %q?", e.Suggestion)
	}
	return buf.String()
}
