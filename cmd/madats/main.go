// Command madats runs a workflow description end to end: map it into a
// Virtual Data Space, apply the configured data management policy, project
// the result to a task DAG, and execute it.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/cmn/errs"
	"github.com/dghoshal-lbl/madats/cmn/nlog"
	"github.com/dghoshal-lbl/madats/core/vds"
	"github.com/dghoshal-lbl/madats/dag"
	"github.com/dghoshal-lbl/madats/exec"
	"github.com/dghoshal-lbl/madats/policy"
	"github.com/dghoshal-lbl/madats/storage"
	"github.com/dghoshal-lbl/madats/workflow"
)

func main() {
	os.Exit(run())
}

func run() int {
	workflowPath := flag.String("workflow", "", "path to a workflow description (YAML)")
	policyName := flag.String("policy", "none", "data management policy: none, wfa, sta")
	mode := flag.String("mode", "dag", "execution mode: dag, bin")
	concurrency := flag.Int64("concurrency", 4, "bounded worker pool size")
	bestEffort := flag.Bool("best-effort", true, "still run descendants of a failed task instead of skipping them")
	autoCleanup := flag.Bool("auto-cleanup", false, "delete temporary staged data once no longer needed")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		nlog.SetLevel(nlog.LevelDebug)
	}

	if *workflowPath == "" {
		nlog.Errorln("-workflow is required")
		return errs.Validation.ExitCode()
	}

	cfg, err := config.Load("")
	if err != nil {
		nlog.Errorf("%v", err)
		return exitCodeOf(err)
	}

	catalog := storage.NewMountCatalog(cfg.Storage)
	v := vds.New(catalog)
	v.SetAutoCleanup(*autoCleanup)
	v.SetStrategy(parsePolicy(*policyName))

	f, err := os.Open(*workflowPath)
	if err != nil {
		nlog.Errorf("opening workflow description: %v", err)
		return errs.Configuration.ExitCode()
	}
	defer f.Close()

	if err := workflow.ParseYAML(f, v); err != nil {
		nlog.Errorf("%v", err)
		return exitCodeOf(err)
	}

	policy.Plan(v)
	graph := dag.Build(v)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	executor := exec.New(exec.Options{
		WorkflowID:  workflowID(*workflowPath),
		Cfg:         cfg,
		Concurrency: *concurrency,
		BestEffort:  *bestEffort,
		KeepScripts: cfg.KeepFiles,
	})

	nlog.Infof("run %s: executing workflow %s", executor.RunID(), workflowID(*workflowPath))

	switch *mode {
	case "bin":
		results, err := executor.RunBins(ctx, v, graph)
		if err != nil {
			nlog.Errorf("%v", err)
			return exitCodeOf(err)
		}
		return summarize(flattenBins(results))
	default:
		results, err := executor.RunDAG(ctx, v, graph)
		if err != nil {
			nlog.Errorf("%v", err)
			return exitCodeOf(err)
		}
		return summarize(results)
	}
}

func workflowID(path string) string {
	id := storage.FingerprintPath(path)
	return id
}

func parsePolicy(name string) vds.Policy {
	switch name {
	case "wfa":
		return vds.PolicyWorkflowAware
	case "sta":
		return vds.PolicyStorageAware
	default:
		return vds.PolicyNone
	}
}

func flattenBins(bins [][]exec.Result) []exec.Result {
	var out []exec.Result
	for _, bin := range bins {
		out = append(out, bin...)
	}
	return out
}

func summarize(results []exec.Result) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			nlog.Errorf("task %s failed: %v", r.Name, r.Err)
		}
	}
	if failed > 0 {
		return errs.Subprocess.ExitCode()
	}
	return 0
}

func exitCodeOf(err error) int {
	var me *errs.Error
	if errors.As(err, &me) {
		return me.ExitCode()
	}
	return 1
}
