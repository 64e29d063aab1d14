// Package policy implements the data management policy engine: given a VDS
// already mapped in from a workflow description, it decides which VDOs get
// copied onto a faster storage tier and wires up the resulting data tasks.
// It is a separate package from core/vds so the VDS itself stays strategy-
// agnostic (a vds.VDS is just storage plumbing; policy.Plan is "what to do
// with it").
package policy

import (
	"github.com/dghoshal-lbl/madats/core/vds"
)

// Plan runs the VDS's configured strategy. NONE is a no-op - the workflow
// runs against whatever tiers the workflow description already named.
func Plan(v *vds.VDS) {
	switch v.Strategy() {
	case vds.PolicyWorkflowAware:
		workflowAware(v)
	case vds.PolicyStorageAware:
		storageAware(v)
	}
}

// fastestTier picks the tier with the highest configured bandwidth.
func fastestTier(v *vds.VDS) string {
	var best string
	var bestBandwidth int64 = -1
	for id, info := range v.Catalog().ListTiers() {
		if info.Bandwidth > bestBandwidth {
			bestBandwidth = info.Bandwidth
			best = id
		}
	}
	return best
}

// workflowAware moves a VDO onto the fast tier only where doing so can
// actually overlap computation with the transfer: an input VDO is worth
// staging only if some consumer has predecessors of its own to run while
// the stage-in happens, and symmetrically for outputs. Intermediate data
// (neither pure input nor pure output) is always staged, since it sits on
// the workflow's critical path regardless.
func workflowAware(v *vds.VDS) {
	fast := fastestTier(v)
	if fast == "" {
		return
	}
	snapshot := v.VDOs()
	for _, vd := range snapshot {
		producers, consumers := vd.Producers(), vd.Consumers()
		switch {
		case len(producers) == 0 && len(consumers) > 0:
			if anyHasPredecessors(v, consumers) {
				v.Copy(vd, fast)
			}
		case len(consumers) == 0 && len(producers) > 0:
			if anyHasSuccessors(v, producers) {
				v.Copy(vd, fast)
			}
		default:
			v.Copy(vd, fast)
		}
	}
}

// storageAware unconditionally stages every VDO onto the fastest tier.
func storageAware(v *vds.VDS) {
	fast := fastestTier(v)
	if fast == "" {
		return
	}
	snapshot := v.VDOs()
	for _, vd := range snapshot {
		v.Copy(vd, fast)
	}
}

func anyHasPredecessors(v *vds.VDS, taskIDs []string) bool {
	for _, id := range taskIDs {
		if t, ok := v.Task(id); ok && len(t.Predecessors) > 0 {
			return true
		}
	}
	return false
}

func anyHasSuccessors(v *vds.VDS, taskIDs []string) bool {
	for _, id := range taskIDs {
		if t, ok := v.Task(id); ok && len(t.Successors) > 0 {
			return true
		}
	}
	return false
}
