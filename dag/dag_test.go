package dag_test

import (
	"testing"

	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vdo"
	"github.com/dghoshal-lbl/madats/core/vds"
	"github.com/dghoshal-lbl/madats/dag"
)

// chainGraph builds A -> B -> C (three compute tasks, two intermediate VDOs)
// directly against core/task and core/vdo, bypassing the VDS's catalog so the
// DAG algorithms can be exercised without touching a filesystem.
func chainGraph(t *testing.T) (*vds.VDS, *task.Task, *task.Task, *task.Task) {
	t.Helper()
	v := vds.New(nil)

	a := task.New(task.WithName("a"), task.WithCommand("gen"))
	b := task.New(task.WithName("b"), task.WithCommand("xform"))
	c := task.New(task.WithName("c"), task.WithCommand("reduce"))
	v.AddTask(a)
	v.AddTask(b)
	v.AddTask(c)

	ab := vdo.New("ab", "/data/ab", "scratch", "ab")
	bc := vdo.New("bc", "/data/bc", "scratch", "bc")
	ab.AddProducer(a.ID)
	ab.AddConsumer(b.ID)
	bc.AddProducer(b.ID)
	bc.AddConsumer(c.ID)
	v.Add(ab)
	v.Add(bc)

	return v, a, b, c
}

func TestBuildLinksProducerToConsumer(t *testing.T) {
	v, a, b, c := chainGraph(t)
	graph := dag.Build(v)

	succ := graph.Successors(a.ID)
	if len(succ) != 1 || succ[0] != b.ID {
		t.Fatalf("expected a -> b, got %v", succ)
	}
	succ = graph.Successors(b.ID)
	if len(succ) != 1 || succ[0] != c.ID {
		t.Fatalf("expected b -> c, got %v", succ)
	}
	if len(graph.Successors(c.ID)) != 0 {
		t.Fatalf("expected c to have no successors, got %v", graph.Successors(c.ID))
	}
}

func TestBuildSkipsSelfLoop(t *testing.T) {
	v := vds.New(nil)
	a := task.New(task.WithName("a"), task.WithCommand("noop"))
	v.AddTask(a)

	self := vdo.New("self", "/data/self", "scratch", "self")
	self.AddProducer(a.ID)
	self.AddConsumer(a.ID)
	v.Add(self)

	graph := dag.Build(v)
	if succ := graph.Successors(a.ID); len(succ) != 0 {
		t.Fatalf("expected no self-loop edge, got %v", succ)
	}
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	v, a, b, c := chainGraph(t)
	graph := dag.Build(v)

	order := graph.TopologicalOrder()
	pos := map[string]int{}
	for i, tk := range order {
		pos[tk.ID] = i
	}
	if pos[a.ID] >= pos[b.ID] || pos[b.ID] >= pos[c.ID] {
		t.Fatalf("expected order a, b, c; got positions a=%d b=%d c=%d", pos[a.ID], pos[b.ID], pos[c.ID])
	}
}

func TestBinOrderGroupsIndependentTasks(t *testing.T) {
	// a, b both feed c: a and b should land in the same bin, c in the next.
	v := vds.New(nil)
	a := task.New(task.WithName("a"), task.WithCommand("gen"))
	b := task.New(task.WithName("b"), task.WithCommand("gen"))
	c := task.New(task.WithName("c"), task.WithCommand("join"))
	v.AddTask(a)
	v.AddTask(b)
	v.AddTask(c)

	ac := vdo.New("ac", "/data/ac", "scratch", "ac")
	ac.AddProducer(a.ID)
	ac.AddConsumer(c.ID)
	bc := vdo.New("bc", "/data/bc", "scratch", "bc")
	bc.AddProducer(b.ID)
	bc.AddConsumer(c.ID)
	v.Add(ac)
	v.Add(bc)

	graph := dag.Build(v)
	bins := graph.BinOrder()
	if len(bins) != 2 {
		t.Fatalf("expected 2 bins, got %d: %v", len(bins), bins)
	}
	if len(bins[0]) != 2 {
		t.Fatalf("expected first bin to hold both independent producers, got %d", len(bins[0]))
	}
	if len(bins[1]) != 1 || bins[1][0].ID != c.ID {
		t.Fatalf("expected second bin to hold only c, got %v", bins[1])
	}
}
