// Package exec implements the Executor: it walks a dag.DAG in dependency
// order, dispatching each task once every predecessor has finished, bounded
// to a fixed worker pool. Scripts are synthesized to disk before
// submission, and each task goes through a scheduler.Adapter to pick its
// submit command and per-option directives.
package exec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/teris-io/shortid"
	"golang.org/x/sync/semaphore"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/cmn/errs"
	"github.com/dghoshal-lbl/madats/cmn/nlog"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vds"
	"github.com/dghoshal-lbl/madats/dag"
	"github.com/dghoshal-lbl/madats/scheduler"
)

// Mode is the executor's execution mode (DAG is the default; BIN groups
// independent tasks and runs each bin to completion before starting the
// next).
type Mode int

const (
	ModeDAG Mode = iota
	ModeBin
)

// Options configures an Executor.
type Options struct {
	WorkflowID  string
	RunID       string // distinguishes concurrent runs of the same workflow; generated if empty
	Cfg         *config.Config
	Concurrency int64         // bounded worker pool size; <=0 means unbounded
	BestEffort  bool          // run descendants of a failed task anyway; false (the zero value) skips them
	TaskTimeout time.Duration // per-task watchdog, 0 = none
	Metrics     *Metrics
	KeepScripts bool
}

// Result is one task's outcome.
type Result struct {
	TaskID  string
	Name    string
	Output  string
	Err     error
	Skipped bool
}

type Executor struct {
	opts    Options
	sem     *semaphore.Weighted
	scripts string
}

func New(opts Options) *Executor {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1 << 20 // effectively unbounded
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.RunID == "" {
		id, err := shortid.Generate()
		if err != nil {
			id = opts.WorkflowID
		}
		opts.RunID = id
	}
	scriptsDir := filepath.Join(opts.Cfg.OutDir, opts.WorkflowID, opts.RunID)
	return &Executor{opts: opts, sem: semaphore.NewWeighted(concurrency), scripts: scriptsDir}
}

// RunDAG dispatches every task in v's DAG in dependency order, gated by a
// shared predecessor-remaining counter per task. It is the default
// execution mode.
func (e *Executor) RunDAG(ctx context.Context, v *vds.VDS, d *dag.DAG) ([]Result, error) {
	if err := os.MkdirAll(e.scripts, 0o755); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "creating script directory %s", e.scripts)
	}
	if !e.opts.KeepScripts {
		defer os.RemoveAll(e.scripts)
	}

	order := d.TopologicalOrder()

	var mu sync.Mutex
	remaining := map[string]int{}
	failedAncestor := map[string]bool{}
	ready := map[string]chan struct{}{}
	for _, t := range order {
		remaining[t.ID] = len(t.Predecessors)
		ready[t.ID] = make(chan struct{}, 1)
	}
	for _, t := range order {
		if remaining[t.ID] == 0 {
			ready[t.ID] <- struct{}{}
		}
	}

	results := make([]Result, len(order))
	var wg sync.WaitGroup

	for i, t := range order {
		wg.Add(1)
		go func(i int, t *task.Task) {
			defer wg.Done()

			select {
			case <-ready[t.ID]:
			case <-ctx.Done():
				results[i] = Result{TaskID: t.ID, Name: t.Name, Err: ctx.Err(), Skipped: true}
				return
			}

			mu.Lock()
			cancelled := failedAncestor[t.ID] && !e.opts.BestEffort
			mu.Unlock()

			var res Result
			if cancelled {
				res = Result{TaskID: t.ID, Name: t.Name, Skipped: true}
				nlog.Infof("skipping %s: an ancestor failed and best-effort mode is off", taskLabel(t))
			} else {
				if err := e.sem.Acquire(ctx, 1); err != nil {
					res = Result{TaskID: t.ID, Name: t.Name, Err: err}
				} else {
					e.opts.Metrics.WorkersBusy.Inc()
					res = e.runOne(ctx, v, t)
					e.opts.Metrics.WorkersBusy.Dec()
					e.sem.Release(1)
				}
			}
			results[i] = res

			mu.Lock()
			for _, succID := range d.Successors(t.ID) {
				if res.Err != nil || cancelled {
					failedAncestor[succID] = true
				}
				remaining[succID]--
				if remaining[succID] == 0 {
					ready[succID] <- struct{}{}
				}
			}
			mu.Unlock()
		}(i, t)
	}

	wg.Wait()
	return results, nil
}

// RunBins groups tasks into dag.BinOrder()'s bins and runs each bin to
// completion (bounded by the same worker pool) before starting the next -
// the alternative "batch of independent tasks" execution mode.
func (e *Executor) RunBins(ctx context.Context, v *vds.VDS, d *dag.DAG) ([][]Result, error) {
	if err := os.MkdirAll(e.scripts, 0o755); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "creating script directory %s", e.scripts)
	}
	if !e.opts.KeepScripts {
		defer os.RemoveAll(e.scripts)
	}

	bins := d.BinOrder()
	out := make([][]Result, len(bins))

	for i, bin := range bins {
		binResults := make([]Result, len(bin))
		var wg sync.WaitGroup
		for j, t := range bin {
			wg.Add(1)
			go func(j int, t *task.Task) {
				defer wg.Done()
				if err := e.sem.Acquire(ctx, 1); err != nil {
					binResults[j] = Result{TaskID: t.ID, Name: t.Name, Err: err}
					return
				}
				e.opts.Metrics.WorkersBusy.Inc()
				binResults[j] = e.runOne(ctx, v, t)
				e.opts.Metrics.WorkersBusy.Dec()
				e.sem.Release(1)
			}(j, t)
		}
		wg.Wait()
		out[i] = binResults
	}
	return out, nil
}

// RunID returns the per-invocation identifier namespacing this executor's
// script directory, so concurrent runs of the same workflow don't clobber
// each other's submit scripts.
func (e *Executor) RunID() string { return e.opts.RunID }

func (e *Executor) runOne(ctx context.Context, v *vds.VDS, t *task.Task) Result {
	kindLabel := t.Kind.String()
	if t.Kind == task.KindData {
		kindLabel = t.DataKind.String()
	}
	e.opts.Metrics.TasksStarted.WithLabelValues(kindLabel).Inc()
	start := time.Now()

	scriptPath, err := e.generateScript(v, t)
	if err != nil {
		e.opts.Metrics.TasksFinished.WithLabelValues(kindLabel, "error").Inc()
		return Result{TaskID: t.ID, Name: t.Name, Err: err}
	}

	adapter := scheduler.ForKind(t.Scheduler, e.opts.Cfg)
	commandLine := fmt.Sprintf("%s %s", adapter.SubmitCommand(), scriptPath)

	nlog.Infof("submitted %s: %s", taskLabel(t), commandLine)
	out, err := runShell(ctx, commandLine, e.opts.TaskTimeout)
	nlog.Infof("finished %s", taskLabel(t))

	e.opts.Metrics.TaskDuration.WithLabelValues(kindLabel).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.opts.Metrics.TasksFinished.WithLabelValues(kindLabel, outcome).Inc()

	return Result{TaskID: t.ID, Name: t.Name, Output: out, Err: err}
}

// generateScript renders a task's submit script to disk: a shebang line,
// one scheduler directive per recognized scheduler_opt, then the command
// line with every VDO-reference parameter resolved to its absolute path.
func (e *Executor) generateScript(v *vds.VDS, t *task.Task) (string, error) {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")

	if t.Scheduler != task.SchedulerNone {
		adapter := scheduler.ForKind(t.Scheduler, e.opts.Cfg)
		for opt, val := range t.SchedulerOpts {
			if line := scheduler.DirectiveLine(adapter, opt, val); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}

	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		if p.IsRef {
			params = append(params, v.ResolvePath(p.VDORef))
		} else {
			params = append(params, p.Literal)
		}
	}
	for _, pre := range t.Prerun {
		b.WriteString(pre)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s %s\n", t.Command, strings.Join(params, " "))
	for _, post := range t.Postrun {
		b.WriteString(post)
		b.WriteByte('\n')
	}

	scriptPath := filepath.Join(e.scripts, t.ID+".sub")
	if err := os.WriteFile(scriptPath, []byte(b.String()), 0o744); err != nil {
		return "", errs.Wrap(errs.Configuration, err, "writing script %s", scriptPath)
	}
	return scriptPath, nil
}

func taskLabel(t *task.Task) string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
