package storage

import (
	"io"
	"os"

	"github.com/colinmarc/hdfs/v2"

	"github.com/dghoshal-lbl/madats/cmn/errs"
)

// HDFSTier is the on-prem archive tier over HDFS RPC - a domain-specific
// alternative to cp -R for archive<->POSIX movement: HPC sites commonly
// keep their long-term archive on HDFS rather than a cloud object store.
type HDFSTier struct {
	id        string
	root      string // HDFS path prefix this tier owns
	bandwidth int64
	client    *hdfs.Client
}

func NewHDFSTier(namenode, id, root string, bandwidth int64) (*HDFSTier, error) {
	client, err := hdfs.New(namenode)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "connecting to HDFS namenode %s for tier %s", namenode, id)
	}
	return &HDFSTier{id: id, root: root, bandwidth: bandwidth, client: client}, nil
}

func (t *HDFSTier) TierID() string { return t.id }

func (t *HDFSTier) Info() TierInfo {
	return TierInfo{ID: t.id, Mount: "hdfs://" + t.root, Persist: "archive", Interface: "hdfs", Bandwidth: t.bandwidth}
}

func (t *HDFSTier) Upload(localPath, hdfsPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "opening %s for HDFS upload", localPath)
	}
	defer f.Close()

	w, err := t.client.Create(hdfsPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "creating HDFS path %s", hdfsPath)
	}
	defer w.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errs.Wrap(errs.Subprocess, err, "uploading %s to hdfs:%s", localPath, hdfsPath)
	}
	return nil
}

func (t *HDFSTier) Download(hdfsPath, localPath string) error {
	r, err := t.client.Open(hdfsPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "opening HDFS path %s", hdfsPath)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "creating %s for HDFS download", localPath)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return errs.Wrap(errs.Subprocess, err, "downloading hdfs:%s to %s", hdfsPath, localPath)
	}
	return nil
}
