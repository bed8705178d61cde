// Package archive stores captured screenshots in Azure Blob Storage.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/nadzzz/glass/internal/config"
)

// Archiver stores a PNG screenshot and returns the name it was stored under.
type Archiver interface {
	Store(ctx context.Context, png []byte, takenAt time.Time) (string, error)
}

// Nop discards screenshots.
type Nop struct{}

// Store does nothing and returns an empty name.
func (Nop) Store(context.Context, []byte, time.Time) (string, error) { return "", nil }

// uploader is the subset of *azblob.Client used by Blob.
type uploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// Blob uploads screenshots to an Azure Blob container.
type Blob struct {
	client    uploader
	container string
}

// NewBlob creates a Blob archiver using shared key credentials.
func NewBlob(cfg config.ArchiveConfig) (*Blob, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}

	slog.Info("screenshot archive enabled", "account", cfg.AccountName, "container", cfg.Container)
	return &Blob{client: client, container: cfg.Container}, nil
}

// Store uploads png as screenshot-<timestamp>.png.
func (b *Blob) Store(ctx context.Context, png []byte, takenAt time.Time) (string, error) {
	name := BlobName(takenAt)
	contentType := "image/png"
	_, err := b.client.UploadBuffer(ctx, b.container, name, png, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return name, nil
}

// BlobName returns the blob name for a screenshot taken at t.
func BlobName(t time.Time) string {
	return "screenshot-" + t.UTC().Format("20060102T150405.000Z") + ".png"
}
