// Package statusdb is the optional persisted task-status store: a record
// per task keyed by (workflow_id, task_id), embedded via buntdb
// (an in-process, single-file store - no separate database process to
// stand up for a workflow tool that otherwise has no server component) and
// serialized with msgp for a compact, schema-stable on-disk format. Records
// are hand-encoded against msgp's streaming Writer/Reader rather than
// generated MarshalMsg/UnmarshalMsg methods, since this module never runs
// `go generate`.
package statusdb

import (
	"bytes"
	"fmt"

	"github.com/tidwall/buntdb"
	"github.com/tinylib/msgp/msgp"

	"github.com/dghoshal-lbl/madats/cmn/errs"
)

// Status is a task's lifecycle state.
type Status int

const (
	Pending Status = iota
	Running
	Completed
	Failed
	NotAvailable
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	default:
		return "NOT_AVAILABLE"
	}
}

// Record is one persisted task-status row.
type Record struct {
	WorkflowID     string
	TaskID         string
	Type           string
	Command        string
	Params         []string
	Dependencies   []string
	SubmissionTime int64
	StartTime      int64
	EndTime        int64
	Status         string
}

const recordFieldCount = 10

// encode writes r as a 10-field msgpack map.
func (r Record) encode(w *msgp.Writer) error {
	if err := w.WriteMapHeader(recordFieldCount); err != nil {
		return err
	}
	fields := []struct {
		key string
		val string
	}{
		{"workflow_id", r.WorkflowID},
		{"task_id", r.TaskID},
		{"type", r.Type},
		{"command", r.Command},
		{"status", r.Status},
	}
	for _, f := range fields {
		if err := w.WriteString(f.key); err != nil {
			return err
		}
		if err := w.WriteString(f.val); err != nil {
			return err
		}
	}
	if err := writeStringSliceField(w, "params", r.Params); err != nil {
		return err
	}
	if err := writeStringSliceField(w, "dependencies", r.Dependencies); err != nil {
		return err
	}
	if err := writeInt64Field(w, "submission_time", r.SubmissionTime); err != nil {
		return err
	}
	if err := writeInt64Field(w, "start_time", r.StartTime); err != nil {
		return err
	}
	return writeInt64Field(w, "end_time", r.EndTime)
}

func writeStringSliceField(w *msgp.Writer, key string, vals []string) error {
	if err := w.WriteString(key); err != nil {
		return err
	}
	if err := w.WriteArrayHeader(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

func writeInt64Field(w *msgp.Writer, key string, val int64) error {
	if err := w.WriteString(key); err != nil {
		return err
	}
	return w.WriteInt64(val)
}

// decode reads a Record written by encode. Field order is not assumed -
// each of the recordFieldCount map entries is read as a (key, value) pair
// and dispatched by key name, tolerating future additive fields.
func (r *Record) decode(rd *msgp.Reader) error {
	n, err := rd.ReadMapHeader()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		key, err := rd.ReadString()
		if err != nil {
			return err
		}
		switch key {
		case "workflow_id":
			if r.WorkflowID, err = rd.ReadString(); err != nil {
				return err
			}
		case "task_id":
			if r.TaskID, err = rd.ReadString(); err != nil {
				return err
			}
		case "type":
			if r.Type, err = rd.ReadString(); err != nil {
				return err
			}
		case "command":
			if r.Command, err = rd.ReadString(); err != nil {
				return err
			}
		case "status":
			if r.Status, err = rd.ReadString(); err != nil {
				return err
			}
		case "params":
			if r.Params, err = readStringSlice(rd); err != nil {
				return err
			}
		case "dependencies":
			if r.Dependencies, err = readStringSlice(rd); err != nil {
				return err
			}
		case "submission_time":
			if r.SubmissionTime, err = rd.ReadInt64(); err != nil {
				return err
			}
		case "start_time":
			if r.StartTime, err = rd.ReadInt64(); err != nil {
				return err
			}
		case "end_time":
			if r.EndTime, err = rd.ReadInt64(); err != nil {
				return err
			}
		default:
			if err := rd.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

func readStringSlice(rd *msgp.Reader) ([]string, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := uint32(0); i < n; i++ {
		if out[i], err = rd.ReadString(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DB wraps a buntdb store keyed by "<workflow_id>/<task_id>".
type DB struct {
	store *buntdb.DB
}

// Open opens (creating if necessary) the status database at path. Pass
// ":memory:" for an ephemeral store, matching buntdb's own convention.
func Open(path string) (*DB, error) {
	store, err := buntdb.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "opening status database %s", path)
	}
	return &DB{store: store}, nil
}

func (db *DB) Close() error { return db.store.Close() }

func key(workflowID, taskID string) string {
	return fmt.Sprintf("%s/%s", workflowID, taskID)
}

// Put writes (or overwrites) one task's status record.
func (db *DB) Put(r Record) error {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := r.encode(w); err != nil {
		return errs.Wrap(errs.Configuration, err, "encoding status record for %s/%s", r.WorkflowID, r.TaskID)
	}
	if err := w.Flush(); err != nil {
		return errs.Wrap(errs.Configuration, err, "flushing status record for %s/%s", r.WorkflowID, r.TaskID)
	}

	payload := buf.String()
	err := db.store.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(r.WorkflowID, r.TaskID), payload, nil)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.TransientIO, err, "writing status record for %s/%s", r.WorkflowID, r.TaskID)
	}
	return nil
}

// Get reads one task's status record, if present.
func (db *DB) Get(workflowID, taskID string) (Record, bool, error) {
	var rec Record
	var found bool
	err := db.store.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key(workflowID, taskID))
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return rec.decode(msgp.NewReader(bytes.NewReader([]byte(val))))
	})
	if err != nil {
		return Record{}, false, errs.Wrap(errs.TransientIO, err, "reading status record for %s/%s", workflowID, taskID)
	}
	return rec, found, nil
}

// ForWorkflow returns every record for a given workflow id.
func (db *DB) ForWorkflow(workflowID string) ([]Record, error) {
	var out []Record
	prefix := workflowID + "/"
	err := db.store.View(func(tx *buntdb.Tx) error {
		var iterErr error
		tx.AscendKeys(prefix+"*", func(k, v string) bool {
			var rec Record
			if err := rec.decode(msgp.NewReader(bytes.NewReader([]byte(v)))); err != nil {
				iterErr = err
				return false
			}
			out = append(out, rec)
			return true
		})
		return iterErr
	})
	if err != nil {
		return nil, errs.Wrap(errs.TransientIO, err, "listing status records for workflow %s", workflowID)
	}
	return out, nil
}
