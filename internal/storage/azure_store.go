package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/live-text-overlay-go/internal/errors"
	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

// AzureStore keeps photos as block blobs in one container
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore connects to the account's blob endpoint with a shared key
func NewAzureStore(accountName, accountKey, container string) (*AzureStore, error) {
	return NewAzureStoreWithURL(fmt.Sprintf("https://%s.blob.core.windows.net", accountName), accountName, accountKey, container)
}

// NewAzureStoreWithURL connects to a custom blob endpoint, such as a local emulator
func NewAzureStoreWithURL(serviceURL, accountName, accountKey, container string) (*AzureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewStorageError("invalid azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, apperrors.NewStorageError("cannot create azure blob client", err)
	}

	return &AzureStore{client: client, container: container}, nil
}

// Backend implements PhotoStore
func (s *AzureStore) Backend() string {
	return "azure"
}

// EnsureContainer creates the container if it does not exist yet
func (s *AzureStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return apperrors.NewStorageError(fmt.Sprintf("cannot create container %s", s.container), err)
	}
	return nil
}

// Save uploads data as a block blob named name
func (s *AzureStore) Save(ctx context.Context, name string, data []byte, contentType string) (models.StoredLocation, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError(fmt.Sprintf("upload of %s failed", name), err)
	}

	uri, err := url.JoinPath(s.client.URL(), s.container, name)
	if err != nil {
		return models.StoredLocation{}, apperrors.NewStorageError("cannot build blob URL", err)
	}

	return models.StoredLocation{
		URI:       uri,
		Name:      name,
		Backend:   s.Backend(),
		Size:      len(data),
		CreatedAt: time.Now(),
	}, nil
}

// Open downloads and decodes the blob named name
func (s *AzureStore) Open(ctx context.Context, name string) (image.Image, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("capture %s not found", name), err)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("download of %s failed", name), err)
	}
	defer resp.Body.Close()

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot decode capture %s", name), err)
	}
	return img, nil
}
