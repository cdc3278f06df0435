// Package storage persists snapshots of provisioned nodes between runs.
//
// A snapshot records the provider-assigned attributes for a node, keyed by
// stack and node id. Restoring snapshots before execution makes re-applying
// an already provisioned stack idempotent and allows a later run to tear the
// stack down.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/stackform/stackform/resource"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// The KVBackend is used for persisting key-value data.
type KVBackend interface {
	// Put creates or updates a key.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the given key. Returns ErrNotFound if the given key does
	// not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete deletes a key. Returns ErrNotFound if the given key does not
	// exist.
	Delete(ctx context.Context, key string) error

	// Scan returns a key-value map of all keys matching the given prefix.
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)
}

// A Snapshot is the persisted record of a provisioned node.
type Snapshot struct {
	ID         string
	Kind       string
	Attributes ctyjson.SimpleJSONValue
}

// KV stores node snapshots in a key-value backend.
type KV struct {
	Backend KVBackend
}

// an envelope wraps the snapshot data when marshalling to json.
type envelope struct {
	Kind  string          `json:"kind"`
	Attrs json.RawMessage `json:"attrs"`
}

func nodeKey(stack, id string) string {
	return fmt.Sprintf("%s/%s", stack, id)
}

// PutNode stores a snapshot of a provisioned node.
func (kv *KV) PutNode(ctx context.Context, stack string, n *resource.Node) error {
	attrs, err := ctyjson.SimpleJSONValue{Value: n.Attributes}.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "marshal attributes")
	}
	env := envelope{Kind: n.Kind, Attrs: attrs}
	j, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	if err := kv.Backend.Put(ctx, nodeKey(stack, n.ID), j); err != nil {
		return errors.Wrap(err, "store")
	}
	return nil
}

// GetNode returns the snapshot for a single node. Returns ErrNotFound if no
// snapshot exists.
func (kv *KV) GetNode(ctx context.Context, stack, id string) (Snapshot, error) {
	data, err := kv.Backend.Get(ctx, nodeKey(stack, id))
	if err != nil {
		return Snapshot{}, err
	}
	return unmarshalSnapshot(id, data)
}

// ListNodes returns all snapshots for a stack, sorted by node id.
func (kv *KV) ListNodes(ctx context.Context, stack string) ([]Snapshot, error) {
	data, err := kv.Backend.Scan(ctx, stack)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	list := make([]Snapshot, 0, len(data))
	for key, val := range data {
		id := key[len(stack)+1:]
		snap, err := unmarshalSnapshot(id, val)
		if err != nil {
			return nil, err
		}
		list = append(list, snap)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// DeleteNode removes the snapshot for a node. Deleting a snapshot that does
// not exist is not an error.
func (kv *KV) DeleteNode(ctx context.Context, stack, id string) error {
	err := kv.Backend.Delete(ctx, nodeKey(stack, id))
	if err != nil && err != ErrNotFound {
		return err
	}
	return nil
}

// Restore applies stored snapshots to declared nodes.
//
// Nodes that have a snapshot are transitioned directly to Provisioned with
// the stored attributes; the executor then skips them. Snapshots for ids
// that are no longer declared are ignored.
func (kv *KV) Restore(ctx context.Context, stack string, reg *resource.Registry) error {
	snaps, err := kv.ListNodes(ctx, stack)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if !reg.Has(snap.ID) {
			continue
		}
		n, err := reg.Get(snap.ID)
		if err != nil {
			return err
		}
		if n.Kind != snap.Kind {
			return errors.Errorf("restore %s: stored kind %q does not match declared kind %q", snap.ID, snap.Kind, n.Kind)
		}
		if err := n.Restore(snap.Attributes.Value); err != nil {
			return errors.Wrapf(err, "restore %s", snap.ID)
		}
	}
	return nil
}

func unmarshalSnapshot(id string, data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, errors.Wrapf(err, "unmarshal envelope for %s", id)
	}
	snap := Snapshot{ID: id, Kind: env.Kind}
	if err := snap.Attributes.UnmarshalJSON(env.Attrs); err != nil {
		return Snapshot{}, errors.Wrapf(err, "unmarshal attributes for %s", id)
	}
	return snap, nil
}
