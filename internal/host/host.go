// Package host defines the contracts renderscope consumes from the component
// runtime that owns the instances being tracked. The runtime is the authority
// on component identity, parentage and existence; everything here is
// best-effort observation of it.
package host

import "errors"

// ComponentID is the numeric identity the runtime assigns when a component is
// attached. It is unknown (None) between creation and attach.
type ComponentID int64

// None marks an absent component id: a still-pending component, a root with
// no parent, or a session-level timeline event subject.
const None ComponentID = -1

// TypeInfo describes a component type.
type TypeInfo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// TreeNode is one entry of an introspected component tree snapshot.
type TreeNode[I any] struct {
	Instance *I
	Parent   ComponentID // None for roots
	Type     TypeInfo
}

// ErrUnsupported is returned by introspectors that cannot reach the runtime's
// internals (version mismatch, access denied). It is a permanent condition
// for a given runtime, not a transient failure.
var ErrUnsupported = errors.New("host tree introspection unsupported")

// TreeIntrospector exposes the runtime's authoritative component tree.
//
// IntrospectTree returns every currently live component keyed by id. The
// returned map is a point-in-time snapshot owned by the caller; callers must
// read it once and drop it rather than retain instances it references.
// Implementations that cannot provide a snapshot return ErrUnsupported.
type TreeIntrospector[I any] interface {
	IntrospectTree() (map[ComponentID]TreeNode[I], error)
}

// IntrospectFunc adapts a function to the TreeIntrospector interface.
type IntrospectFunc[I any] func() (map[ComponentID]TreeNode[I], error)

// IntrospectTree implements TreeIntrospector.
func (f IntrospectFunc[I]) IntrospectTree() (map[ComponentID]TreeNode[I], error) {
	return f()
}
