package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3Store].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store implements Store on Amazon S3 or any S3-compatible object
// store (MinIO, R2, etc.). One key is one object; Search maps directly
// onto ListObjectsV2 with its native continuation tokens.
//
// The caller is responsible for configuring the [s3.Client] with
// appropriate credentials, region, and endpoint.
type S3Store struct {
	client   S3Client
	bucket   string
	prefix   string
	pageSize int32
}

// NewS3 creates an S3-backed Store. Prefix is prepended to all object
// keys; pass "" for no prefix. pageSize <= 0 selects DefaultPageSize.
func NewS3(client S3Client, bucket, prefix string, pageSize int) *S3Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix, pageSize: int32(pageSize)}
}

// objectKey builds the S3 object key for (namespace, key). Namespace
// segments are joined with the store's namespace separator rather than
// "/": joining with "/" would make namespace ["a","b"] key "/k" and
// namespace ["a"] key "/b/k" the same object.
func (s *S3Store) objectKey(namespace []string, key string) string {
	encoded := encodeKey(namespace, strings.TrimPrefix(key, "/"))
	if s.prefix != "" {
		return s.prefix + "/" + encoded
	}
	return encoded
}

// keyBase is the object-key prefix shared by all keys in a namespace.
func (s *S3Store) keyBase(namespace []string) string {
	return s.objectKey(namespace, "")
}

func (s *S3Store) Get(ctx context.Context, namespace []string, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(namespace, key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) Put(ctx context.Context, namespace []string, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(namespace, key)),
		Body:   bytes.NewReader(value),
	})
	return err
}

// Delete removes the object. S3 DeleteObject is already idempotent
// (returns success for missing keys).
func (s *S3Store) Delete(ctx context.Context, namespace []string, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(namespace, key)),
	})
	return err
}

// Search lists one page of keys under the namespace prefix and fetches
// each object's value. The page token is the ListObjectsV2 continuation
// token, passed through unchanged.
func (s *S3Store) Search(ctx context.Context, namespace []string, prefix, pageToken string) (Page, error) {
	base := s.keyBase(namespace)
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(base + strings.TrimPrefix(prefix, "/")),
		MaxKeys: aws.Int32(s.pageSize),
	}
	if pageToken != "" {
		in.ContinuationToken = aws.String(pageToken)
	}
	out, err := s.client.ListObjectsV2(ctx, in)
	if err != nil {
		return Page{}, err
	}

	var page Page
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		rest := strings.TrimPrefix(*obj.Key, base)
		if strings.Contains(rest, namespaceSeparator) {
			continue // nested namespace sharing this prefix
		}
		key := "/" + rest
		value, err := s.Get(ctx, namespace, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // deleted between list and get
			}
			return Page{}, err
		}
		page.Items = append(page.Items, Item{Key: key, Value: value})
	}
	if out.NextContinuationToken != nil {
		page.NextToken = *out.NextContinuationToken
	}
	return page, nil
}

func (s *S3Store) Close() error { return nil }

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ Store = (*S3Store)(nil)
