// Package resource defines the declared units of infrastructure and the
// registry that holds them.
//
// A Node is purely declarative; it carries no provisioning logic of its own.
// The provider collaborator performs the actual creation and teardown, while
// the node records the lifecycle state and the attributes assigned by the
// provider.
package resource

import (
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
)

// A Node is a single declared unit of infrastructure.
type Node struct {
	// ID uniquely identifies the node within a stack. It is stable for the
	// lifetime of the stack.
	ID string

	// Kind identifies the resource category (storage-bucket, queue,
	// load-balancer, ...). The provider uses it to select the provisioning
	// logic.
	Kind string

	// Config contains the declared properties for the node. Fields that
	// reference attributes of other nodes hold unknown values until the
	// references are resolved during execution.
	Config cty.Value

	// Index is the declaration order within the registry. Plans break ties
	// between independent nodes using this index.
	Index int

	// State is the node's current lifecycle state. It must only be advanced
	// through the transition methods.
	State State

	// Attributes holds the provider-assigned values (URL, DNS name, ARN).
	// It is cty.NilVal until the node is provisioned, and is written exactly
	// once.
	Attributes cty.Value
}

// MarkPlanned transitions the node from Declared to Planned.
func (n *Node) MarkPlanned() error {
	if n.State != Declared {
		return errors.Errorf("mark %s planned: state is %s", n.ID, n.State)
	}
	n.State = Planned
	return nil
}

// BeginProvisioning transitions the node from Planned to Provisioning.
func (n *Node) BeginProvisioning() error {
	if n.State != Planned {
		return errors.Errorf("provision %s: state is %s, want %s", n.ID, n.State, Planned)
	}
	n.State = Provisioning
	return nil
}

// Provision records the attributes assigned by the provider and transitions
// the node to Provisioned.
//
// Attributes are written exactly once. Calling Provision on a node that
// already has attributes indicates a bug in the executor and panics.
func (n *Node) Provision(attrs cty.Value) error {
	if n.State != Provisioning {
		return errors.Errorf("complete %s: state is %s, want %s", n.ID, n.State, Provisioning)
	}
	if n.Attributes != cty.NilVal {
		panic("resource: attributes set twice for " + n.ID)
	}
	n.Attributes = attrs
	n.State = Provisioned
	return nil
}

// Restore transitions a freshly declared node directly to Provisioned with
// attributes recorded by a previous run.
func (n *Node) Restore(attrs cty.Value) error {
	if n.State != Declared {
		return errors.Errorf("restore %s: state is %s, want %s", n.ID, n.State, Declared)
	}
	if n.Attributes != cty.NilVal {
		panic("resource: attributes set twice for " + n.ID)
	}
	n.Attributes = attrs
	n.State = Provisioned
	return nil
}

// Fail transitions the node from Provisioning to Failed.
func (n *Node) Fail() error {
	if n.State != Provisioning {
		return errors.Errorf("fail %s: state is %s, want %s", n.ID, n.State, Provisioning)
	}
	n.State = Failed
	return nil
}

// TearDown transitions a provisioned node to TornDown.
func (n *Node) TearDown() error {
	if n.State != Provisioned {
		return errors.Errorf("tear down %s: state is %s, want %s", n.ID, n.State, Provisioned)
	}
	n.State = TornDown
	return nil
}
