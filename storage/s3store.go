package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/minio/minio-go/v7"
)

/*
Storage provider for S3-compatible object storage. We use the minio client
library.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	minioErrNoSuchKey = "NoSuchKey"
)

type s3store struct {
	mc     *minio.Client
	bucket string
}

func NewS3Store(mc *minio.Client, bucket string) Provider {
	return &s3store{
		mc:     mc,
		bucket: bucket,
	}
}

// Put stores the data in the object store.
func (s *s3store) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.mc.PutObject(
		ctx,
		s.bucket,
		id,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Get reads an object from the object store. GetObject is lazy, so a missing
// key surfaces on the first read.
func (s *s3store) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.mc.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(err)
	}
	return data, nil
}

// Delete removes an object from the object store. Removing a missing key
// succeeds.
func (s *s3store) Delete(ctx context.Context, id string) error {
	if err := s.mc.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// List returns the keys in the bucket beginning with prefix.
func (s *s3store) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ids := []string{}
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		ids = append(ids, obj.Key)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *s3store) mapError(err error) error {
	if minio.ToErrorResponse(err).Code == minioErrNoSuchKey {
		return ErrObjectNotFound
	}
	return fmt.Errorf("failed to get object: %w", err)
}

func (s *s3store) String() string {
	return fmt.Sprintf("s3(%s)", s.bucket)
}
