package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

type fakeUploader struct {
	container, name string
	data            []byte
	contentType     string
	err             error
}

func (f *fakeUploader) UploadBuffer(_ context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.name, f.data = containerName, blobName, buffer
	if o != nil && o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		f.contentType = *o.HTTPHeaders.BlobContentType
	}
	return azblob.UploadBufferResponse{}, f.err
}

func TestBlobStore(t *testing.T) {
	up := &fakeUploader{}
	b := &Blob{client: up, container: "screenshots"}
	taken := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

	name, err := b.Store(context.Background(), []byte("png"), taken)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if name != "screenshot-20250304T050607.890Z.png" {
		t.Errorf("name = %q", name)
	}
	if up.container != "screenshots" || up.name != name || string(up.data) != "png" {
		t.Errorf("upload = %+v", up)
	}
	if up.contentType != "image/png" {
		t.Errorf("content type = %q", up.contentType)
	}
}

func TestBlobStoreError(t *testing.T) {
	b := &Blob{client: &fakeUploader{err: errors.New("403 forbidden")}, container: "c"}
	_, err := b.Store(context.Background(), []byte("png"), time.Now())
	if err == nil || !strings.Contains(err.Error(), "403 forbidden") {
		t.Fatalf("Store() error = %v", err)
	}
}

func TestNop(t *testing.T) {
	name, err := Nop{}.Store(context.Background(), []byte("png"), time.Now())
	if name != "" || err != nil {
		t.Errorf("Nop.Store() = %q, %v", name, err)
	}
}
