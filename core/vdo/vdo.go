// Package vdo defines the Virtual Data Object, the typed record for one
// logical datum in a workflow's Virtual Data Space. A VDO tracks its own
// producer/consumer task ids as duplicate-free, insertion-order sets; it
// does not reference Task values directly (that would create an ownership
// cycle between this package and core/task) - the VDS owns both and
// resolves ids to values.
package vdo

// Persistence classifies how long the underlying data must survive past
// the end of the workflow.
type Persistence int

const (
	PersistenceNone Persistence = iota
	PersistenceShortTerm
	PersistenceLongTerm
	PersistenceFixedTerm
)

func (p Persistence) String() string {
	switch p {
	case PersistenceShortTerm:
		return "SHORT_TERM"
	case PersistenceLongTerm:
		return "LONG_TERM"
	case PersistenceFixedTerm:
		return "FIXED_TERM"
	default:
		return "NONE"
	}
}

// VDO is a virtual data object: one logical datum abstracted from a
// concrete filesystem (or object-store) path.
type VDO struct {
	ID           string
	AbsPath      string
	StorageID    string
	RelativePath string

	producers []string // task ids, insertion-order, duplicate-free
	consumers []string

	Size        int64
	Persistence Persistence
	Replication int
	Deadline    int64 // epoch-ms
	Destination string
	QoS         map[string]interface{}
	NonMovable  bool

	temporary bool // set true once created as a data-task target

	CopyTo   []string // vdo ids, insertion-order
	CopyFrom string   // vdo id, "" if not a copy
}

// New constructs a VDO for an already-resolved (id, abspath, storage-id,
// relative-path) tuple; the Storage Catalog lookup happens one layer up in
// the VDS so this package stays catalog-agnostic.
func New(id, absPath, storageID, relativePath string) *VDO {
	return &VDO{
		ID:           id,
		AbsPath:      absPath,
		StorageID:    storageID,
		RelativePath: relativePath,
		QoS:          map[string]interface{}{},
	}
}

// Persist derives persist from persistence: persist iff persistence != NONE
// (spec I4). There is deliberately no independent Persist setter.
func (v *VDO) Persist() bool { return v.Persistence != PersistenceNone }

func (v *VDO) IsTemporary() bool  { return v.temporary }
func (v *VDO) MarkTemporary()     { v.temporary = true }

func (v *VDO) Producers() []string { return v.producers }
func (v *VDO) Consumers() []string { return v.consumers }

// AddProducer inserts a task id into the producer set if not already
// present; returns true iff the set changed (spec P1: set semantics).
func (v *VDO) AddProducer(taskID string) bool {
	if contains(v.producers, taskID) {
		return false
	}
	v.producers = append(v.producers, taskID)
	return true
}

func (v *VDO) AddConsumer(taskID string) bool {
	if contains(v.consumers, taskID) {
		return false
	}
	v.consumers = append(v.consumers, taskID)
	return true
}

// SetProducers replaces the producer set wholesale, de-duplicating while
// preserving the order given - mirrors the original's list-or-single-value
// setter, minus the "maybe one maybe many" dynamic typing.
func (v *VDO) SetProducers(taskIDs []string) {
	v.producers = dedup(taskIDs)
}

func (v *VDO) SetConsumers(taskIDs []string) {
	v.consumers = dedup(taskIDs)
}

func (v *VDO) ClearConsumers() { v.consumers = nil }
func (v *VDO) ClearProducers() { v.producers = nil }

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func dedup(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
