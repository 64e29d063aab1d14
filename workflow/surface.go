// Package workflow implements the mapping-based workflow description
// surface: a workflow is a mapping task-name -> {command, params, vin,
// vout, scheduler, scheduler_opts, name}. Parsing it into a VDS is exposed
// as two io.Reader entry points: ParseYAML for the canonical YAML form and
// ParseJSON (json-iterator) for the same mapping sent as JSON, e.g. in a
// REST payload. There is no exported entry point for an already-decoded map.
package workflow

import (
	"io"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/dghoshal-lbl/madats/cmn/errs"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vds"
)

// TaskSpec is one entry of the workflow mapping.
type TaskSpec struct {
	Name          string            `yaml:"name" json:"name"`
	Command       string            `yaml:"command" json:"command"`
	Params        []string          `yaml:"params" json:"params"`
	VIn           []string          `yaml:"vin" json:"vin"`
	VOut          []string          `yaml:"vout" json:"vout"`
	Scheduler     string            `yaml:"scheduler" json:"scheduler"`
	SchedulerOpts map[string]string `yaml:"scheduler_opts" json:"scheduler_opts"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseYAML decodes a workflow description in YAML form, the canonical
// surface, and maps it into v.
func ParseYAML(r io.Reader, v *vds.VDS) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "reading workflow description")
	}
	var spec map[string]TaskSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return errs.Wrap(errs.Configuration, err, "parsing workflow description")
	}
	return mapIntoVDS(spec, v)
}

// ParseJSON decodes the same mapping shape from JSON, used by surfaces
// that accept a workflow submission over HTTP rather than a file on disk.
func ParseJSON(r io.Reader, v *vds.VDS) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "reading workflow description")
	}
	var spec map[string]TaskSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return errs.Wrap(errs.Configuration, err, "parsing workflow description")
	}
	return mapIntoVDS(spec, v)
}

// mapIntoVDS turns the parsed mapping into VDS state: for every task it
// creates VDOs for vin/vout, wires each VDO's producer/consumer set,
// resolves params that name a vin/vout entry into VDO references, and
// seeds Predecessors/Successors from raw vout->vin name overlap - the same
// preliminary structural signal the Policy Engine's workflow-aware
// heuristic inspects before the DAG builder ever runs.
func mapIntoVDS(spec map[string]TaskSpec, v *vds.VDS) error {
	tasksByKey := make(map[string]*task.Task, len(spec))
	outputOwners := map[string][]*task.Task{} // raw vout name -> producing tasks
	consumersByName := map[string][]*task.Task{}

	for key, info := range spec {
		if info.Command == "" {
			return errs.New(errs.Validation, "task %q is missing a command", key)
		}
		name := info.Name
		if name == "" {
			name = key
		}

		t := task.New(
			task.WithName(name),
			task.WithCommand(info.Command),
			task.WithScheduler(schedulerKind(info.Scheduler)),
			task.WithSchedulerOpts(info.SchedulerOpts),
		)
		tasksByKey[key] = t

		vdoIDs := map[string]string{} // raw path -> vdo id, for this task's param resolution
		for _, in := range info.VIn {
			vd := v.Map(in)
			vd.AddConsumer(t.ID)
			vdoIDs[in] = vd.ID
			consumersByName[in] = append(consumersByName[in], t)
		}
		for _, out := range info.VOut {
			vd := v.Map(out)
			vd.AddProducer(t.ID)
			vdoIDs[out] = vd.ID
			outputOwners[out] = append(outputOwners[out], t)
		}

		t.Params = make([]task.Param, len(info.Params))
		for i, p := range info.Params {
			abs, _ := filepath.Abs(p)
			if id, ok := resolveVDORef(p, abs, vdoIDs); ok {
				t.Params[i] = task.Ref(id)
			} else {
				t.Params[i] = task.Lit(p)
			}
		}

		v.AddTask(t)
	}

	// seed predecessor/successor from vout -> vin raw-name overlap (matches
	// the original's pre-DAG-build structural hint).
	for out, producers := range outputOwners {
		for _, producer := range producers {
			for _, consumer := range consumersByName[out] {
				if consumer.ID == producer.ID {
					continue
				}
				consumer.AddPredecessor(producer.ID)
				producer.AddSuccessor(consumer.ID)
			}
		}
	}

	return nil
}

func resolveVDORef(raw, abs string, vdoIDs map[string]string) (string, bool) {
	if id, ok := vdoIDs[raw]; ok {
		return id, true
	}
	if id, ok := vdoIDs[abs]; ok {
		return id, true
	}
	return "", false
}

func schedulerKind(name string) task.SchedulerKind {
	switch name {
	case "slurm":
		return task.SchedulerSlurm
	case "pbs":
		return task.SchedulerPBS
	case "kubernetes", "k8s":
		return task.SchedulerKubernetes
	default:
		return task.SchedulerNone
	}
}
