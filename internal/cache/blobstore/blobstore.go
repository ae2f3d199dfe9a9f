// Package blobstore is the Azure blob durable backend. Credentials come
// from a static connection string or, failing that, the ambient identity
// chain (managed identity, then a local developer session).
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type Config struct {
	AccountURL       string
	ConnectionString string
	Container        string
}

type Store struct {
	logger *slog.Logger
	cfg    Config
	client *azblob.Client
}

func New(logger *slog.Logger, cfg Config) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Container == "" {
		cfg.Container = "weather-images"
	}
	return &Store{logger: logger, cfg: cfg}
}

func (s *Store) Name() string { return "blob" }

// Init builds the client and ensures the container exists. Missing
// configuration for both credential modes is a hard init failure; the
// manager's selector turns that into the filesystem fallback.
func (s *Store) Init(ctx context.Context) error {
	switch {
	case s.cfg.ConnectionString != "":
		client, err := azblob.NewClientFromConnectionString(s.cfg.ConnectionString, nil)
		if err != nil {
			return fmt.Errorf("blob client from connection string: %w", err)
		}
		s.client = client
	case s.cfg.AccountURL != "":
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return fmt.Errorf("ambient azure credential: %w", err)
		}
		client, err := azblob.NewClient(s.cfg.AccountURL, cred, nil)
		if err != nil {
			return fmt.Errorf("blob client: %w", err)
		}
		s.client = client
	default:
		return errors.New("blob backend: neither connection string nor account url configured")
	}

	_, err := s.client.CreateContainer(ctx, s.cfg.Container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("ensure container %q: %w", s.cfg.Container, err)
	}
	s.logger.Debug("blob container ready", "container", s.cfg.Container)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, string, bool, error) {
	resp, err := s.client.DownloadStream(ctx, s.cfg.Container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("download %q: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", false, fmt.Errorf("read blob %q: %w", key, err)
	}
	ct := ""
	if resp.ContentType != nil {
		ct = *resp.ContentType
	}
	return data, ct, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, s.cfg.Container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.cfg.Container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
