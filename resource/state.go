package resource

import "fmt"

// A State describes where a node is in its provisioning lifecycle.
//
// States always advance forward; a node never returns to an earlier
// state. The zero value is Declared.
type State int

// Valid states, in lifecycle order.
const (
	// Declared is the initial state for a node added to a Registry.
	Declared State = iota

	// Planned is set on every node when a plan has been created.
	Planned

	// Provisioning is set when the provider call for the node has started.
	Provisioning

	// Provisioned is set when the provider call succeeded and the node's
	// attributes have been recorded.
	Provisioned

	// Failed is set when the provider call returned an error.
	Failed

	// TornDown is set when the node's infrastructure has been destroyed.
	TornDown
)

func (s State) String() string {
	switch s {
	case Declared:
		return "declared"
	case Planned:
		return "planned"
	case Provisioning:
		return "provisioning"
	case Provisioned:
		return "provisioned"
	case Failed:
		return "failed"
	case TornDown:
		return "torndown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
