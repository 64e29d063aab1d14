package scheduler_test

import (
	"testing"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/scheduler"
)

func TestForKindNoneFallsBackToShell(t *testing.T) {
	a := scheduler.ForKind(task.SchedulerNone, nil)
	if a.SubmitCommand() != "bash -c" {
		t.Fatalf("expected plain shell submission, got %q", a.SubmitCommand())
	}
	if _, ok := a.Directive("nodes"); ok {
		t.Fatalf("expected NONE adapter to recognize no directives")
	}
}

func TestForKindSlurmUsesConfiguredSubmitOrDefault(t *testing.T) {
	cfg := &config.Config{
		Slurm: config.SchedulerConfig{
			Directives: map[string]string{"nodes": "--nodes"},
		},
	}
	a := scheduler.ForKind(task.SchedulerSlurm, cfg)
	if a.SubmitCommand() != "sbatch" {
		t.Fatalf("expected default sbatch submit command, got %q", a.SubmitCommand())
	}
	if a.DependencySpecifier() != "--dependency=afterok:" {
		t.Fatalf("unexpected slurm dependency specifier: %q", a.DependencySpecifier())
	}

	line := scheduler.DirectiveLine(a, "nodes", "4")
	if line != "--nodes=4" {
		t.Fatalf("expected rendered directive line, got %q", line)
	}
	if scheduler.DirectiveLine(a, "unknown", "x") != "" {
		t.Fatalf("expected unrecognized options to render as empty")
	}
}

func TestForKindSlurmHonorsConfiguredSubmit(t *testing.T) {
	cfg := &config.Config{
		Slurm: config.SchedulerConfig{Submit: "sbatch --cluster=foo"},
	}
	a := scheduler.ForKind(task.SchedulerSlurm, cfg)
	if a.SubmitCommand() != "sbatch --cluster=foo" {
		t.Fatalf("expected configured submit command to override the default, got %q", a.SubmitCommand())
	}
}

func TestForKindPBSDependencyDelimiter(t *testing.T) {
	a := scheduler.ForKind(task.SchedulerPBS, &config.Config{})
	if a.DependencyDelimiter() != ":" {
		t.Fatalf("expected PBS dependency delimiter ':', got %q", a.DependencyDelimiter())
	}
}

func TestForKindKubernetesUsesKubectl(t *testing.T) {
	a := scheduler.ForKind(task.SchedulerKubernetes, &config.Config{})
	if a.SubmitCommand() != "kubectl apply -f" {
		t.Fatalf("expected kubectl submit command, got %q", a.SubmitCommand())
	}
}
