// Package dag projects a VDS's producer/consumer relationships into a task
// dependency graph and implements the two execution orderings the executor
// consumes. Edges are derived purely from VDO producer/consumer overlap - a
// task is never asked for its dependencies directly - which keeps the
// projection a read-only view over the VDS rather than a second source of
// truth.
package dag

import (
	"fmt"
	"strings"

	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vds"
)

// DAG is an adjacency-list projection of a VDS: for each task id, the list
// of task ids directly reachable from it (its successors).
type DAG struct {
	adjacency map[string][]string
	tasks     map[string]*task.Task
	order     []string // first-encountered order, for deterministic iteration
}

func newDAG() *DAG {
	return &DAG{adjacency: map[string][]string{}, tasks: map[string]*task.Task{}}
}

func (d *DAG) ensureNode(id string, t *task.Task) {
	if _, ok := d.tasks[id]; ok {
		return
	}
	d.tasks[id] = t
	d.adjacency[id] = nil
	d.order = append(d.order, id)
}

// Build derives the DAG from a VDS: for every VDO, each of its producers
// gets an edge to each of its consumers, skipping self-loops (a task that
// is both a producer and consumer of the same VDO would otherwise create a
// one-task deadlock cycle). It also sets every task's Predecessors/Successors
// as a side effect so the Policy Engine's workflow-aware heuristic (which
// inspects those lists before this package runs, seeded instead by the
// workflow surface layer) and any later re-run of Build stay consistent.
func Build(v *vds.VDS) *DAG {
	d := newDAG()

	for _, t := range v.AllTasks() {
		d.ensureNode(t.ID, t)
	}

	for _, vd := range v.VDOs() {
		producers := vd.Producers()
		consumers := vd.Consumers()
		for _, prodID := range producers {
			prod, ok := v.Task(prodID)
			if !ok {
				continue
			}
			d.ensureNode(prodID, prod)
			for _, consID := range consumers {
				if consID == prodID {
					continue
				}
				cons, ok := v.Task(consID)
				if !ok {
					continue
				}
				d.ensureNode(consID, cons)
				if !containsID(d.adjacency[prodID], consID) {
					d.adjacency[prodID] = append(d.adjacency[prodID], consID)
					cons.AddPredecessor(prod.ID)
					prod.AddSuccessor(cons.ID)
				}
			}
		}
		for _, consID := range consumers {
			if cons, ok := v.Task(consID); ok {
				d.ensureNode(consID, cons)
			}
		}
	}

	return d
}

func (d *DAG) Successors(id string) []string   { return d.adjacency[id] }
func (d *DAG) Task(id string) (*task.Task, bool) {
	t, ok := d.tasks[id]
	return t, ok
}
func (d *DAG) NodeIDs() []string { return d.order }

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Sprint renders the DAG as "task : successor successor ..." lines, one per
// node, in build order - a plain-text dump for operator debugging before a
// run starts.
func Sprint(d *DAG) string {
	var b strings.Builder
	for _, id := range d.order {
		t := d.tasks[id]
		succNames := make([]string, 0, len(d.adjacency[id]))
		for _, s := range d.adjacency[id] {
			if st, ok := d.tasks[s]; ok {
				succNames = append(succNames, taskLabel(st))
			}
		}
		fmt.Fprintf(&b, "%s : %s\n", taskLabel(t), strings.Join(succNames, " "))
	}
	return b.String()
}

func taskLabel(t *task.Task) string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
