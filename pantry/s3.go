package pantry

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source loads the pantry artifact from S3.
type S3Source struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3Source(s3Client s3GetObjectAPI, bucket, key string) *S3Source {
	return &S3Source{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3Source) Load(ctx context.Context) ([]string, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pantry object from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pantry object body: %w", err)
	}
	return parseArtifact(data)
}
