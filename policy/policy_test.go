package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/policy"
	"github.com/dghoshal-lbl/madats/storage"
	"github.com/dghoshal-lbl/madats/core/vds"
)

func newSpace(t *testing.T) (*vds.VDS, string, string) {
	t.Helper()
	slow := t.TempDir()
	fast := t.TempDir()
	catalog := storage.NewMountCatalog(map[string]config.TierConfig{
		"slow": {Mount: slow, Persist: "NONE", Interface: "posix", Bandwidth: 100},
		"fast": {Mount: fast, Persist: "NONE", Interface: "posix", Bandwidth: 5000},
	})
	return vds.New(catalog), slow, fast
}

func TestStorageAwareStagesEveryVDOOntoFastestTier(t *testing.T) {
	v, slow, _ := newSpace(t)
	v.SetStrategy(vds.PolicyStorageAware)

	srcPath := filepath.Join(slow, "in1")
	os.WriteFile(srcPath, []byte("A"), 0o644)
	src := v.Map(srcPath)
	consumer := task.New(task.WithCommand("cat"))
	v.AddTask(consumer)
	src.AddConsumer(consumer.ID)

	policy.Plan(v)

	_, data := v.Tasks()
	if len(data) == 0 {
		t.Fatalf("expected storage-aware planning to create at least one data task")
	}
}

func TestWorkflowAwareSkipsInputWhenConsumerHasNoPredecessors(t *testing.T) {
	v, slow, _ := newSpace(t)
	v.SetStrategy(vds.PolicyWorkflowAware)

	srcPath := filepath.Join(slow, "in1")
	os.WriteFile(srcPath, []byte("A"), 0o644)
	src := v.Map(srcPath)

	// consumer has no predecessors of its own: nothing to overlap with a
	// stage-in, so workflow-aware planning should leave this VDO alone.
	consumer := task.New(task.WithCommand("cat"))
	v.AddTask(consumer)
	src.AddConsumer(consumer.ID)

	policy.Plan(v)

	_, data := v.Tasks()
	if len(data) != 0 {
		t.Fatalf("expected no data tasks when the sole consumer has no predecessors, got %d", len(data))
	}
}

func TestWorkflowAwareStagesInputWhenConsumerHasPredecessors(t *testing.T) {
	v, slow, _ := newSpace(t)
	v.SetStrategy(vds.PolicyWorkflowAware)

	srcPath := filepath.Join(slow, "in1")
	os.WriteFile(srcPath, []byte("A"), 0o644)
	src := v.Map(srcPath)

	upstream := task.New(task.WithCommand("gen"))
	consumer := task.New(task.WithCommand("cat"))
	consumer.AddPredecessor(upstream.ID)
	v.AddTask(upstream)
	v.AddTask(consumer)
	src.AddConsumer(consumer.ID)

	policy.Plan(v)

	_, data := v.Tasks()
	if len(data) == 0 {
		t.Fatalf("expected a stage-in data task when the consumer has a predecessor to overlap with")
	}
}
