// Package vds implements the Virtual Data Space: the collection of VDOs and
// DataTasks for one workflow's lifetime, and the data-task insertion engine
// that is the hardest algorithm in the system. The VDS owns every VDO and
// Task by id: all producer/consumer/predecessor/successor relationships are
// string ids resolved through this package's maps, which sidesteps the
// ownership cycles a Task<->VDO back-reference would otherwise create.
package vds

import (
	"path/filepath"

	"github.com/dghoshal-lbl/madats/cmn/nlog"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vdo"
	"github.com/dghoshal-lbl/madats/storage"
)

// Policy is the data management strategy a VDS is configured with (spec
// §4.4); the Policy Engine itself lives one layer up in package policy to
// avoid a vds->policy->vds import cycle.
type Policy int

const (
	PolicyNone Policy = iota
	PolicyWorkflowAware
	PolicyStorageAware
)

func (p Policy) String() string {
	switch p {
	case PolicyWorkflowAware:
		return "WORKFLOW_AWARE"
	case PolicyStorageAware:
		return "STORAGE_AWARE"
	default:
		return "NONE"
	}
}

// VDS is the Virtual Data Space for one workflow.
type VDS struct {
	catalog storage.Catalog

	vdosByID   map[string]*vdo.VDO
	vdosByPath map[string]string
	order      []string

	tasksByID map[string]*task.Task
	taskOrder []string

	strategy    Policy
	autoCleanup bool

	counters map[string]int
}

func New(catalog storage.Catalog) *VDS {
	return &VDS{
		catalog:    catalog,
		vdosByID:   map[string]*vdo.VDO{},
		vdosByPath: map[string]string{},
		tasksByID:  map[string]*task.Task{},
		counters: map[string]int{
			"num_vdos": 0, "data_tasks": 0, "data_movements": 0,
			"preparer_tasks": 0, "cleanup_tasks": 0,
		},
	}
}

/////////////////////////
// Basic VDO operations //
/////////////////////////

// Map maps a datapath to a VDO, creating and adding it if necessary (spec
// §3). Re-mapping the same path returns the existing VDO.
func (v *VDS) Map(datapath string) *vdo.VDO {
	abs, err := filepath.Abs(datapath)
	if err != nil {
		abs = datapath
	}
	if id, ok := v.vdosByPath[abs]; ok {
		return v.vdosByID[id]
	}
	tierID, rel := v.catalog.TierOf(abs)
	id := storage.FingerprintPath(abs)
	vd := vdo.New(id, abs, tierID, rel)
	vd.Size = storage.StatSize(abs)
	v.insertVDO(vd)
	return vd
}

func (v *VDS) insertVDO(vd *vdo.VDO) {
	v.vdosByID[vd.ID] = vd
	v.vdosByPath[vd.AbsPath] = vd.ID
	v.order = append(v.order, vd.ID)
	v.counters["num_vdos"]++
}

// Add inserts a VDO that already exists as a value (e.g. constructed by the
// surface layer); a duplicate id is a no-op with an info log, so repeated
// inserts of the same datapath stay idempotent.
func (v *VDS) Add(vd *vdo.VDO) {
	if v.Exists(vd.ID) {
		nlog.Infof("virtual data object for %s already exists", vd.AbsPath)
		return
	}
	v.insertVDO(vd)
}

func (v *VDS) Exists(id string) bool {
	_, ok := v.vdosByID[id]
	return ok
}

func (v *VDS) Get(id string) (*vdo.VDO, bool) {
	vd, ok := v.vdosByID[id]
	return vd, ok
}

// ResolvePath returns the absolute path a VDO id names, or "" if unknown -
// the lookup the executor needs to turn a task.Param.VDORef into an actual
// command-line argument at script-synthesis time.
func (v *VDS) ResolvePath(vdoID string) string {
	if vd, ok := v.vdosByID[vdoID]; ok {
		return vd.AbsPath
	}
	return ""
}

// VDOs returns a shallow, insertion-ordered snapshot - the Policy Engine
// iterates this snapshot rather than the live VDS so VDOs inserted mid-pass
// (copy targets, preparer/cleaner dummies) are not visited.
func (v *VDS) VDOs() []*vdo.VDO {
	out := make([]*vdo.VDO, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.vdosByID[id])
	}
	return out
}

// Copy copies vdoSrc into a new VDO on destTierID, carrying over the
// producer/consumer links, and implicitly invokes CreateDataTask.
func (v *VDS) Copy(src *vdo.VDO, destTierID string) *vdo.VDO {
	destPath := v.catalog.BuildPath(destTierID, src.RelativePath)
	abs, err := filepath.Abs(destPath)
	if err != nil {
		abs = destPath
	}
	id := storage.FingerprintPath(abs)
	if v.Exists(id) {
		return v.vdosByID[id]
	}

	dest := v.Map(destPath)
	src.CopyTo = append(src.CopyTo, dest.ID)
	dest.CopyFrom = src.ID
	dest.SetConsumers(append([]string(nil), src.Consumers()...))
	dest.SetProducers(append([]string(nil), src.Producers()...))
	v.CreateDataTask(src, dest)
	return dest
}

// Replace rewrites every parameter of new's producers/consumers that
// referenced old to reference new instead, then deletes old.
func (v *VDS) Replace(old, newVDO *vdo.VDO) {
	v.substituteParams(newVDO.Consumers(), old.ID, newVDO.ID)
	v.substituteParams(newVDO.Producers(), old.ID, newVDO.ID)
	nlog.Infof("changing datapath from %s to %s", old.AbsPath, newVDO.AbsPath)
	v.Delete(old)
}

func (v *VDS) Delete(vd *vdo.VDO) {
	if _, ok := v.vdosByID[vd.ID]; !ok {
		return
	}
	delete(v.vdosByID, vd.ID)
	delete(v.vdosByPath, vd.AbsPath)
	v.order = removeID(v.order, vd.ID)
	v.counters["num_vdos"]--
}

func (v *VDS) substituteParams(taskIDs []string, oldVDO, newVDO string) {
	for _, tid := range taskIDs {
		if t, ok := v.tasksByID[tid]; ok {
			t.SubstituteParam(oldVDO, newVDO)
		}
	}
}

/////////////////////
// Task bookkeeping //
/////////////////////

// AddTask registers a user-authored (COMPUTE) task with the VDS; the
// surface layer calls this once per task while mapping a workflow in.
func (v *VDS) AddTask(t *task.Task) { v.registerTask(t) }

func (v *VDS) registerTask(t *task.Task) {
	if _, ok := v.tasksByID[t.ID]; ok {
		return
	}
	v.tasksByID[t.ID] = t
	v.taskOrder = append(v.taskOrder, t.ID)
}

func (v *VDS) Task(id string) (*task.Task, bool) {
	t, ok := v.tasksByID[id]
	return t, ok
}

func (v *VDS) AllTasks() []*task.Task {
	out := make([]*task.Task, 0, len(v.taskOrder))
	for _, id := range v.taskOrder {
		out = append(out, v.tasksByID[id])
	}
	return out
}

//////////////////////////
// Strategy / properties //
//////////////////////////

func (v *VDS) SetStrategy(p Policy) { v.strategy = p }
func (v *VDS) Strategy() Policy     { return v.strategy }

func (v *VDS) SetAutoCleanup(b bool) { v.autoCleanup = b }
func (v *VDS) AutoCleanup() bool     { return v.autoCleanup }

func (v *VDS) Catalog() storage.Catalog { return v.catalog }

///////////////////////
// Query interfaces   //
///////////////////////

func (v *VDS) Count() int { return len(v.vdosByID) }

func (v *VDS) Data() []string {
	out := make([]string, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.vdosByID[id].AbsPath)
	}
	return out
}

// Tasks groups every registered task by compute/data kind.
func (v *VDS) Tasks() (compute, data []*task.Task) {
	for _, id := range v.taskOrder {
		t := v.tasksByID[id]
		if t.Kind == task.KindData {
			data = append(data, t)
		} else {
			compute = append(compute, t)
		}
	}
	return compute, data
}

// Destroy tears down every VDO in the space.
func (v *VDS) Destroy() {
	for _, id := range append([]string(nil), v.order...) {
		if vd, ok := v.vdosByID[id]; ok {
			v.Delete(vd)
		}
	}
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
