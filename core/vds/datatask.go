package vds

import (
	"path/filepath"

	"github.com/dghoshal-lbl/madats/cmn/nlog"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vdo"
	"github.com/dghoshal-lbl/madats/storage"
)

// CreateDataTask inserts the data task(s) needed to move src's content to
// dest's location. It dispatches on P = len(src.Producers()) and
// C = len(src.Consumers()) at the moment src is about to be replaced by
// dest:
//
//	Case A (stage-in):        P == 0, C > 0
//	Case B (stage-out/persist-through): C == 0 && P > 0, or P>0 && C>0 && src persists
//	Case C (intermediate):    everything else - no MOVER needed, replace in place
//
// A non-movable src always short-circuits to a no-op delete of dest.
func (v *VDS) CreateDataTask(src, dest *vdo.VDO) *task.Task {
	if src.NonMovable {
		nlog.Infof("%s is non-movable, skipping data task creation", src.AbsPath)
		v.Delete(dest)
		return nil
	}

	if !v.Exists(src.ID) {
		v.Add(src)
	}
	if !v.Exists(dest.ID) {
		v.Add(dest)
	}

	p := len(src.Producers())
	c := len(src.Consumers())

	switch {
	case p == 0 && c > 0:
		return v.stageIn(src, dest)
	case (c == 0 && p > 0) || (p > 0 && c > 0 && src.Persist()):
		return v.stageOut(src, dest)
	default:
		return v.intermediate(src, dest)
	}
}

// sameContentShortCircuit implements the no-op check shared by all three
// cases: if src isn't on an archive tier and its content already matches
// dest's, no data movement happens at all - dest is simply substituted for
// src everywhere and the pair collapses via Replace.
func (v *VDS) sameContentShortCircuit(src, dest *vdo.VDO) bool {
	if src.StorageID == "archive" {
		return false
	}
	if !v.catalog.SameContent(src.AbsPath, dest.AbsPath).Bool() {
		return false
	}
	nlog.Infof("no data movement necessary, %s and %s have the same content", src.AbsPath, dest.AbsPath)
	v.Replace(src, dest)
	dest.MarkTemporary()
	v.maybeAutoCleanup(dest)
	return true
}

// stageIn handles Case A: src has no producer (it's workflow input) and is
// consumed downstream, so a MOVER brings its content onto dest's tier.
func (v *VDS) stageIn(src, dest *vdo.VDO) *task.Task {
	if v.sameContentShortCircuit(src, dest) {
		return nil
	}

	dtID := storage.FingerprintDataTask(src.ID, dest.ID, task.Mover.String())
	if existing, ok := v.tasksByID[dtID]; ok {
		nlog.Infof("data task (%s) already exists", dtID)
		return existing
	}
	nlog.Infof("creating data stage-in task %s -> %s", src.AbsPath, dest.AbsPath)

	v.substituteParams(dest.Consumers(), src.ID, dest.ID)
	v.substituteParams(dest.Producers(), src.ID, dest.ID)

	mover := task.NewDataTask(dtID, task.Mover, src.ID, dest.ID, v.moverCommand(src, dest))
	v.registerTask(mover)
	v.counters["data_tasks"]++
	v.counters["data_movements"]++

	dest.SetProducers([]string{mover.ID})
	src.SetConsumers([]string{mover.ID})

	v.ensurePreparer(filepath.Dir(dest.AbsPath), dest)

	dest.MarkTemporary()
	v.maybeAutoCleanup(dest)
	return mover
}

// stageOut handles Case B: src already has a producer and either nothing
// downstream consumes it directly (it's workflow output) or it must persist
// past the workflow - either way a MOVER carries its content to dest's
// (persistent) location.
func (v *VDS) stageOut(src, dest *vdo.VDO) *task.Task {
	if v.sameContentShortCircuit(src, dest) {
		return nil
	}

	dtID := storage.FingerprintDataTask(src.ID, dest.ID, task.Mover.String())
	if existing, ok := v.tasksByID[dtID]; ok {
		nlog.Infof("data task (%s) already exists", dtID)
		return existing
	}
	nlog.Infof("creating data stage-out task %s -> %s", src.AbsPath, dest.AbsPath)

	v.substituteParams(src.Consumers(), src.ID, dest.ID)
	v.substituteParams(src.Producers(), src.ID, dest.ID)

	mover := task.NewDataTask(dtID, task.Mover, dest.ID, src.ID, v.moverCommand(dest, src))
	v.registerTask(mover)
	v.counters["data_tasks"]++
	v.counters["data_movements"]++

	src.SetProducers([]string{mover.ID})
	dest.AddConsumer(mover.ID)
	src.ClearConsumers()

	v.ensurePreparer(filepath.Dir(src.AbsPath), src)

	dest.MarkTemporary()
	v.maybeAutoCleanup(dest)
	return mover
}

// intermediate handles Case C: src is neither pure input nor pure output -
// the producing task can simply write directly to dest's location, so no
// MOVER is needed, only a PREPARER for dest's directory, then a straight
// substitution.
func (v *VDS) intermediate(src, dest *vdo.VDO) *task.Task {
	if v.sameContentShortCircuit(src, dest) {
		return nil
	}

	v.ensurePreparer(filepath.Dir(dest.AbsPath), dest)
	v.Replace(src, dest)
	dest.MarkTemporary()
	v.maybeAutoCleanup(dest)
	return nil
}

// ensurePreparer creates (or reuses) the PREPARER task that materializes
// dirPath before targetVDO can be produced into it. The directory VDO's
// consumer set is targetVDO's current producer set - at the point this is
// called that's always exactly the task about to write targetVDO (the
// MOVER in cases A/B, the original producer in case C), so the DAG edge
// this creates is always "preparer before the task that writes here",
// matching the "so MOVER won't run before the directory exists" invariant
// even in case C where there is no MOVER.
func (v *VDS) ensurePreparer(dirPath string, targetVDO *vdo.VDO) *task.Task {
	dirVDO := v.Map(dirPath)
	id := storage.FingerprintDataTask("", dirVDO.ID, task.Preparer.String())

	if existing, ok := v.tasksByID[id]; ok {
		for _, p := range targetVDO.Producers() {
			dirVDO.AddConsumer(p)
		}
		return existing
	}

	preparer := task.NewDataTask(id, task.Preparer, "", dirVDO.ID, "mkdir -p "+dirPath)
	v.registerTask(preparer)
	v.counters["data_tasks"]++
	v.counters["preparer_tasks"]++

	dirVDO.AddProducer(preparer.ID)
	for _, p := range targetVDO.Producers() {
		dirVDO.AddConsumer(p)
	}
	return preparer
}

// maybeAutoCleanup attaches a CLEANER task for dest when auto-cleanup is on
// and dest is a temporary, non-persistent VDO. The cleaner's predecessors
// are every task that produces or consumes dest,
// modeled by making dest's producers and consumers the producers of a dummy
// "<path>.deleted" VDO that only the cleaner consumes.
func (v *VDS) maybeAutoCleanup(dest *vdo.VDO) {
	if !v.autoCleanup || !dest.IsTemporary() || dest.Persist() {
		return
	}
	nlog.Infof("%s will be removed once no longer needed", dest.AbsPath)

	dummy := v.Map(dest.AbsPath + ".deleted")
	dtID := storage.FingerprintDataTask(dest.ID, dummy.ID, task.Cleaner.String())
	if _, ok := v.tasksByID[dtID]; ok {
		return
	}

	for _, c := range dest.Consumers() {
		dummy.AddProducer(c)
	}
	for _, p := range dest.Producers() {
		dummy.AddProducer(p)
	}

	cleaner := task.NewDataTask(dtID, task.Cleaner, dest.ID, dummy.ID, "rm -rf "+dest.AbsPath)
	v.registerTask(cleaner)
	v.counters["data_tasks"]++
	v.counters["cleanup_tasks"]++
	dummy.AddConsumer(cleaner.ID)
}

func (v *VDS) tierInfo(tierID string) storage.TierInfo {
	if info, ok := v.catalog.ListTiers()[tierID]; ok {
		return info
	}
	return storage.TierInfo{ID: tierID, Interface: "posix"}
}

func (v *VDS) moverCommand(from, to *vdo.VDO) string {
	fromTier := v.tierInfo(from.StorageID)
	toTier := v.tierInfo(to.StorageID)
	return storage.SelectMover(fromTier, toTier).Command(fromTier, toTier, from.AbsPath, to.AbsPath)
}
