package storage

import (
	"context"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/dghoshal-lbl/madats/cmn/errs"
)

// AzureBlobTier is a second cloud archive-tier backend: same RemoteTier
// contract as S3Tier, different wire protocol, proving the tier
// abstraction in the Storage Catalog is genuinely backend-agnostic.
type AzureBlobTier struct {
	id        string
	container string
	bandwidth int64
	client    *azblob.Client
}

func NewAzureBlobTier(id, container, accountURL string, cred azblob.SharedKeyCredential, bandwidth int64) (*AzureBlobTier, error) {
	client, err := azblob.NewClientWithSharedKeyCredential(accountURL, &cred, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "creating azure blob client for tier %s", id)
	}
	return &AzureBlobTier{id: id, container: container, bandwidth: bandwidth, client: client}, nil
}

func (t *AzureBlobTier) TierID() string { return t.id }

func (t *AzureBlobTier) Info() TierInfo {
	return TierInfo{ID: t.id, Mount: "azblob://" + t.container, Persist: "archive", Interface: "azblob", Bandwidth: t.bandwidth}
}

func (t *AzureBlobTier) Upload(ctx context.Context, localPath, blobName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "opening %s for blob upload", localPath)
	}
	defer f.Close()

	_, err = t.client.UploadFile(ctx, t.container, blobName, f, nil)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "uploading %s to azblob://%s/%s", localPath, t.container, blobName)
	}
	return nil
}

func (t *AzureBlobTier) Download(ctx context.Context, blobName, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "creating %s for blob download", localPath)
	}
	defer f.Close()

	_, err = t.client.DownloadFile(ctx, t.container, blobName, f, nil)
	if err != nil {
		return errs.Wrap(errs.Subprocess, err, "downloading azblob://%s/%s to %s", t.container, blobName, localPath)
	}
	return nil
}
