// Package scheduler abstracts the batch scheduler a task's submission
// script targets: submit/status commands, per-option directive prefixes,
// and the dependency-specifier syntax used when one task must wait for
// another at the scheduler level rather than (or in addition to) the
// executor's own gating. NONE falls back to a plain local shell.
package scheduler

import (
	"fmt"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/core/task"
)

// Adapter is the per-backend mapping the executor consumes to synthesize
// and submit a task's script.
type Adapter interface {
	SubmitCommand() string
	StatusCommand() string
	Directive(option string) (string, bool)
	DependencySpecifier() string
	DependencyDelimiter() string
}

type noneAdapter struct{}

func (noneAdapter) SubmitCommand() string                  { return "bash -c" }
func (noneAdapter) StatusCommand() string                  { return "" }
func (noneAdapter) Directive(string) (string, bool)        { return "", false }
func (noneAdapter) DependencySpecifier() string             { return "" }
func (noneAdapter) DependencyDelimiter() string             { return "" }

type directiveAdapter struct {
	submit     string
	status     string
	directives map[string]string
	depSpec    string
	depDelim   string
}

func (a directiveAdapter) SubmitCommand() string { return a.submit }
func (a directiveAdapter) StatusCommand() string { return a.status }
func (a directiveAdapter) Directive(option string) (string, bool) {
	d, ok := a.directives[option]
	return d, ok
}
func (a directiveAdapter) DependencySpecifier() string { return a.depSpec }
func (a directiveAdapter) DependencyDelimiter() string { return a.depDelim }

// ForKind builds the Adapter for a task's configured scheduler backend,
// reading its submit/status/directive configuration out of cfg.
func ForKind(kind task.SchedulerKind, cfg *config.Config) Adapter {
	switch kind {
	case task.SchedulerSlurm:
		return directiveAdapter{
			submit:     pick(cfg.Slurm.Submit, "sbatch"),
			status:     pick(cfg.Slurm.Status, "squeue"),
			directives: cfg.Slurm.Directives,
			depSpec:    "--dependency=afterok:",
			depDelim:   ",",
		}
	case task.SchedulerPBS:
		return directiveAdapter{
			submit:     pick(cfg.PBS.Submit, "qsub"),
			status:     pick(cfg.PBS.Status, "qstat"),
			directives: cfg.PBS.Directives,
			depSpec:    "-W depend=afterok:",
			depDelim:   ":",
		}
	case task.SchedulerKubernetes:
		return directiveAdapter{
			submit:     "kubectl apply -f",
			status:     "kubectl get job",
			directives: cfg.Kube.Directives,
			depSpec:    "",
			depDelim:   ",",
		}
	default:
		return noneAdapter{}
	}
}

func pick(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// DirectiveLine renders one scheduler-opt as a script directive line, or
// "" if the backend doesn't recognize the option (unrecognized options are
// silently dropped, matching the original's get_directive contract).
func DirectiveLine(a Adapter, option, value string) string {
	directive, ok := a.Directive(option)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s=%s", directive, value)
}
