package task_test

import (
	"testing"

	"github.com/dghoshal-lbl/madats/core/task"
)

func TestNewDefaultsToComputeKind(t *testing.T) {
	tk := task.New(task.WithCommand("echo hi"))
	if tk.Kind != task.KindCompute {
		t.Fatalf("expected zero-value Kind to be COMPUTE, got %v", tk.Kind)
	}
	if tk.ID == "" {
		t.Fatalf("expected New to assign a non-empty id")
	}
}

func TestNewDataTaskBuildsExpectedParams(t *testing.T) {
	mover := task.NewDataTask("dt1", task.Mover, "src-vdo", "dest-vdo", "cp -R")
	if len(mover.Params) != 2 {
		t.Fatalf("expected MOVER to carry (src, dest) params, got %v", mover.Params)
	}
	if !mover.Params[0].RefersTo("src-vdo") || !mover.Params[1].RefersTo("dest-vdo") {
		t.Fatalf("expected MOVER params to reference src then dest, got %v", mover.Params)
	}

	preparer := task.NewDataTask("dt2", task.Preparer, "", "dir-vdo", "mkdir -p")
	if len(preparer.Params) != 1 || !preparer.Params[0].RefersTo("dir-vdo") {
		t.Fatalf("expected PREPARER to carry a single dest param, got %v", preparer.Params)
	}
}

func TestSubstituteParamPreservesPositionAndCount(t *testing.T) {
	tk := task.New(task.WithParams([]task.Param{
		task.Lit("-v"),
		task.Ref("old"),
		task.Lit("-o"),
		task.Ref("old"),
	}))

	n := tk.SubstituteParam("old", "new")
	if n != 2 {
		t.Fatalf("expected 2 substitutions, got %d", n)
	}
	if tk.Params[0].Literal != "-v" || tk.Params[2].Literal != "-o" {
		t.Fatalf("expected literal params untouched, got %v", tk.Params)
	}
	if !tk.Params[1].RefersTo("new") || !tk.Params[3].RefersTo("new") {
		t.Fatalf("expected both ref params rewritten to new, got %v", tk.Params)
	}
}

func TestSubstituteParamRewritesSrcDestVDO(t *testing.T) {
	tk := task.NewDataTask("dt1", task.Mover, "old", "dest", "cp")
	tk.SubstituteParam("old", "new")
	if tk.SrcVDO != "new" {
		t.Fatalf("expected SrcVDO rewritten, got %s", tk.SrcVDO)
	}
}

func TestAddPredecessorSuccessorDedup(t *testing.T) {
	tk := task.New()
	tk.AddPredecessor("p1")
	tk.AddPredecessor("p1")
	tk.AddSuccessor("s1")
	if len(tk.Predecessors) != 1 || len(tk.Successors) != 1 {
		t.Fatalf("expected duplicate-free insertion, got predecessors=%v successors=%v", tk.Predecessors, tk.Successors)
	}
}
