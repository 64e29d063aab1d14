package storage

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"

	madaterrs "github.com/dghoshal-lbl/madats/cmn/errs"
)

// GCSTier is a third cloud archive-tier backend, over a Google Cloud
// Storage bucket.
type GCSTier struct {
	id        string
	bucket    string
	bandwidth int64
	client    *storage.Client
}

func NewGCSTier(ctx context.Context, id, bucket string, bandwidth int64) (*GCSTier, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, madaterrs.Wrap(madaterrs.Configuration, err, "creating GCS client for tier %s", id)
	}
	return &GCSTier{id: id, bucket: bucket, bandwidth: bandwidth, client: client}, nil
}

func (t *GCSTier) TierID() string { return t.id }

func (t *GCSTier) Info() TierInfo {
	return TierInfo{ID: t.id, Mount: "gs://" + t.bucket, Persist: "archive", Interface: "gcs", Bandwidth: t.bandwidth}
}

func (t *GCSTier) Upload(ctx context.Context, localPath, object string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return madaterrs.Wrap(madaterrs.Subprocess, err, "opening %s for GCS upload", localPath)
	}
	defer f.Close()

	w := t.client.Bucket(t.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return madaterrs.Wrap(madaterrs.Subprocess, err, "uploading %s to gs://%s/%s", localPath, t.bucket, object)
	}
	if err := w.Close(); err != nil {
		return madaterrs.Wrap(madaterrs.Subprocess, err, "finalizing gs://%s/%s", t.bucket, object)
	}
	return nil
}

func (t *GCSTier) Download(ctx context.Context, object, localPath string) error {
	r, err := t.client.Bucket(t.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return madaterrs.Wrap(madaterrs.Subprocess, err, "opening gs://%s/%s for download", t.bucket, object)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return madaterrs.Wrap(madaterrs.Subprocess, err, "creating %s for GCS download", localPath)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return madaterrs.Wrap(madaterrs.Subprocess, err, "downloading gs://%s/%s to %s", t.bucket, object, localPath)
	}
	return nil
}
