// Package covers stores book cover images in an S3 bucket with public reads.
package covers

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Covers are immutable-ish static assets; an hour of client caching keeps
// re-renders cheap while still picking up a re-uploaded cover same-day.
const cacheControl = "max-age=3600"

// S3PutObjectAPI provides a unit-testable interface to access the S3 PutObject API.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store uploads cover images and hands back their public URLs.
type Store struct {
	client        S3PutObjectAPI
	bucket        string
	publicBaseURL string
}

// NewStore creates a Store writing to the given bucket. publicBaseURL is the
// bucket's public-read URL prefix, without a trailing slash.
func NewStore(client S3PutObjectAPI, bucket, publicBaseURL string) *Store {
	return &Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Key derives the object key for a book's cover from the original filename's
// extension. The key depends only on the book id, so re-uploading under the
// same id overwrites the prior cover.
func Key(bookID uuid.UUID, filename string) string {
	return fmt.Sprintf("covers/%s%s", bookID, strings.ToLower(path.Ext(filename)))
}

// Upload stores a cover image and returns its publicly resolvable URL.
// PutObject replaces any existing object at the same key.
func (s *Store) Upload(ctx context.Context, bookID uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	key := Key(bookID, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("upload cover %s: %w", key, err)
	}

	return s.publicBaseURL + "/" + key, nil
}
