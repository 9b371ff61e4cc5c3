package cdn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	ErrPresign = errors.New("failed to create presigned URL")
	ErrStorage = errors.New("failed to write object to storage")
	ErrDelete  = errors.New("failed to delete objects from storage")
)

// UploadDescriptor is a time-boxed write authorization for one logical
// file. The caller pushes bytes straight to the object store with it;
// the relay never buffers artifact payloads.
type UploadDescriptor struct {
	ObjectKey    string `json:"objectKey"`
	UploadURL    string `json:"uploadUrl"`
	ExpiresInSec int64  `json:"expiresIn"`
}

// File is one member of a batch upload.
type File struct {
	Key         string
	Body        []byte
	ContentType string
}

// Config carries the object-store settings for a Manager.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
	Bucket          string
	BasePath        string
	PipelineName    string
	CdnURL          string
	UsePathStyle    bool
}

// Manager issues presigned uploads and performs the relay's own writes
// against an S3-compatible store.
type Manager struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	uploader      *manager.Uploader
	cfg           Config
}

func NewManager(cfg Config) *Manager {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: cfg.UsePathStyle,
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.Concurrency = 4
	})

	return &Manager{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		uploader:      uploader,
		cfg:           cfg,
	}
}

// ObjectKey builds the deterministic build-scoped key. Package and
// metadata files for the same build number always share the prefix up
// to and including build-{n}/.
func (m *Manager) ObjectKey(fileName, buildNumber string) string {
	return fmt.Sprintf("%s/builds/%s/build-%s/%s", m.cfg.BasePath, m.cfg.PipelineName, buildNumber, fileName)
}

// PublicURL is the CDN-facing address of an uploaded object.
func (m *Manager) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", m.cfg.CdnURL, key)
}

// CreatePresignedUpload requests a time-boxed PUT authorization for
// one object key.
func (m *Manager) CreatePresignedUpload(ctx context.Context, key string, expires time.Duration) (*UploadDescriptor, error) {
	req, err := m.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPresign, err)
	}

	return &UploadDescriptor{
		ObjectKey:    key,
		UploadURL:    req.URL,
		ExpiresInSec: int64(expires.Seconds()),
	}, nil
}

// RequestUpload issues the two-descriptor upload session for a build:
// one for the package file, one for the fixed metadata.json under the
// same build prefix.
func (m *Manager) RequestUpload(ctx context.Context, fileName, buildNumber string, expires time.Duration) (packageDesc, metadataDesc *UploadDescriptor, err error) {
	packageDesc, err = m.CreatePresignedUpload(ctx, m.ObjectKey(fileName, buildNumber), expires)
	if err != nil {
		return nil, nil, err
	}

	metadataDesc, err = m.CreatePresignedUpload(ctx, m.ObjectKey("metadata.json", buildNumber), expires)
	if err != nil {
		return nil, nil, err
	}

	return packageDesc, metadataDesc, nil
}

// UploadFile writes bytes to the store at key and returns the public
// CDN URL. The uploader splits large bodies into 5MB parts.
func (m *Manager) UploadFile(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return m.PublicURL(key), nil
}

// UploadMultipleFiles fans the uploads out concurrently and joins
// all-or-nothing: on any failure the aggregate fails, no partial
// result is returned, and keys that did land are best-effort removed.
func (m *Manager) UploadMultipleFiles(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			urls[i], errs[i] = m.UploadFile(ctx, f.Key, f.Body, f.ContentType)
		}(i, f)
	}
	wg.Wait()

	var uploaded []string
	var failed error
	for i, err := range errs {
		if err != nil {
			failed = err
			continue
		}
		uploaded = append(uploaded, files[i].Key)
	}

	if failed != nil {
		if len(uploaded) > 0 {
			if err := m.DeleteFiles(ctx, uploaded); err != nil {
				log.Printf("⚠️ Failed to clean up partial batch upload: %v", err)
			}
		}
		return nil, failed
	}

	return urls, nil
}

// DeleteFiles removes objects by key in one multi-object delete.
func (m *Manager) DeleteFiles(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	_, err := m.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(m.cfg.Bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}

	return nil
}
