package storage

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dghoshal-lbl/madats/cmn/errs"
)

// S3Tier is an archive-tier backend over an S3 bucket namespace: objects
// under the bucket form the tier's "mount", with the object key standing in
// for the relative path the rest of the catalog works with.
type S3Tier struct {
	id       string
	bucket   string
	bandwidth int64
	client   *s3.Client
}

func NewS3Tier(ctx context.Context, id, bucket, region string, bandwidth int64) (*S3Tier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "loading AWS config for tier %s", id)
	}
	return &S3Tier{id: id, bucket: bucket, bandwidth: bandwidth, client: s3.NewFromConfig(cfg)}, nil
}

func (t *S3Tier) TierID() string { return t.id }

func (t *S3Tier) Info() TierInfo {
	return TierInfo{ID: t.id, Mount: "s3://" + t.bucket, Persist: "archive", Interface: "s3", Bandwidth: t.bandwidth}
}

// Upload pushes a local file to the bucket under key; used by the
// madats-mover helper when a MOVER task names this tier as its destination.
func (t *S3Tier) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "opening %s for S3 upload", localPath)
	}
	defer f.Close()

	uploader := manager.NewUploader(t.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "uploading %s to s3://%s/%s", localPath, t.bucket, key)
	}
	return nil
}

// Download pulls an object from the bucket to a local file.
func (t *S3Tier) Download(ctx context.Context, key, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "creating %s for S3 download", localPath)
	}
	defer f.Close()

	downloader := manager.NewDownloader(t.client)
	_, err = downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "downloading s3://%s/%s to %s", t.bucket, key, localPath)
	}
	return nil
}
