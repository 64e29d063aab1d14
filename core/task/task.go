// Package task defines the compute/data task specification consumed by the
// VDS, the DAG builder, and the executor. A Task never references a
// *vdo.VDO directly - parameter slots that name a VDO carry its id
// (Param.VDORef), which keeps this package free of a dependency on
// core/vdo and lets the VDS rewrite parameters by id substitution.
package task

import "github.com/google/uuid"

// Kind is the top-level task classification.
type Kind int

const (
	KindCompute Kind = iota // zero value: constructors default to COMPUTE
	KindData
)

func (k Kind) String() string {
	if k == KindData {
		return "DATA"
	}
	return "COMPUTE"
}

// DataKind distinguishes the three DataTask subtypes.
type DataKind int

const (
	DataKindNone DataKind = iota
	Preparer
	Mover
	Cleaner
)

func (d DataKind) String() string {
	switch d {
	case Preparer:
		return "PREPARER"
	case Mover:
		return "MOVER"
	case Cleaner:
		return "CLEANER"
	default:
		return ""
	}
}

// SchedulerKind is the back-end a task is destined for.
type SchedulerKind int

const (
	SchedulerNone SchedulerKind = iota
	SchedulerSlurm
	SchedulerPBS
	SchedulerKubernetes
)

func (s SchedulerKind) String() string {
	switch s {
	case SchedulerSlurm:
		return "slurm"
	case SchedulerPBS:
		return "pbs"
	case SchedulerKubernetes:
		return "kubernetes"
	default:
		return "none"
	}
}

// Param is one positional argument of a task's command line: either a
// literal string or a reference to a VDO (by id), substituted with the
// VDO's absolute path at script-synthesis time.
type Param struct {
	Literal string
	VDORef  string
	IsRef   bool
}

func Lit(s string) Param        { return Param{Literal: s} }
func Ref(vdoID string) Param    { return Param{VDORef: vdoID, IsRef: true} }
func (p Param) RefersTo(id string) bool { return p.IsRef && p.VDORef == id }

// Task is a compute or data step in the workflow.
type Task struct {
	ID      string
	Name    string
	Kind    Kind
	Command string
	Params  []Param

	Predecessors []string // task ids, set by the DAG builder
	Successors   []string

	Bin int // assigned by bin-order; never persisted across runs

	Scheduler     SchedulerKind
	SchedulerOpts map[string]string

	Prerun  []string
	Postrun []string

	// DataKind/SrcVDO/DestVDO are populated only when Kind == KindData.
	DataKind DataKind
	SrcVDO   string // vdo id, "" for PREPARER
	DestVDO  string // vdo id
}

// Option configures a Task at construction time.
type Option func(*Task)

func WithName(name string) Option     { return func(t *Task) { t.Name = name } }
func WithCommand(cmd string) Option   { return func(t *Task) { t.Command = cmd } }
func WithParams(p []Param) Option     { return func(t *Task) { t.Params = p } }
func WithScheduler(s SchedulerKind) Option {
	return func(t *Task) { t.Scheduler = s }
}
func WithSchedulerOpts(opts map[string]string) Option {
	return func(t *Task) { t.SchedulerOpts = opts }
}

// New constructs a COMPUTE task with a random unique id. Constructors
// default Kind to COMPUTE via the zero value.
func New(opts ...Option) *Task {
	t := &Task{
		ID:            uuid.NewString(),
		Kind:          KindCompute,
		SchedulerOpts: map[string]string{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDataTask builds a data task with the given deterministic id (the VDS
// computes this as fingerprint(src, dest, kind) so insertion is idempotent).
func NewDataTask(id string, kind DataKind, srcVDO, destVDO string, command string) *Task {
	var params []Param
	switch kind {
	case Preparer:
		params = []Param{Ref(destVDO)}
	case Mover:
		params = []Param{Ref(srcVDO), Ref(destVDO)}
	case Cleaner:
		params = []Param{Ref(destVDO)}
	}
	return &Task{
		ID:            id,
		Kind:          KindData,
		DataKind:      kind,
		Command:       command,
		Params:        params,
		SrcVDO:        srcVDO,
		DestVDO:       destVDO,
		SchedulerOpts: map[string]string{},
	}
}

// AddPredecessor/AddSuccessor are duplicate-free insertions used by the DAG
// builder.
func (t *Task) AddPredecessor(id string) {
	if !containsID(t.Predecessors, id) {
		t.Predecessors = append(t.Predecessors, id)
	}
}

func (t *Task) AddSuccessor(id string) {
	if !containsID(t.Successors, id) {
		t.Successors = append(t.Successors, id)
	}
}

// SubstituteParam replaces every occurrence of oldVDO with newVDO in Params,
// preserving length and position (spec P3: parameter-link preservation).
// Returns the number of substitutions made.
func (t *Task) SubstituteParam(oldVDO, newVDO string) int {
	n := 0
	for i, p := range t.Params {
		if p.RefersTo(oldVDO) {
			t.Params[i] = Ref(newVDO)
			n++
		}
	}
	if t.SrcVDO == oldVDO {
		t.SrcVDO = newVDO
	}
	if t.DestVDO == oldVDO {
		t.DestVDO = newVDO
	}
	return n
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
