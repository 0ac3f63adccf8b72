// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
)

// maxSnapshotSize bounds a single catalog snapshot read.
const maxSnapshotSize = 64 * 1024 * 1024

var ErrSnapshotNotFound = errors.New("snapshot not found")

// StorageService reads and archives catalog snapshots. Snapshots live in S3;
// without AWS credentials they are served from a local directory.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local development reads snapshots from disk
		return &StorageService{config: config}, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	}
	if config.AWS.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.AWS.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// DefaultKey is the key of the snapshot imported when none is named.
func (s *StorageService) DefaultKey() string {
	return s.config.AWS.SnapshotKey
}

// Fetch returns the snapshot stored under key. An empty key reads the
// configured default snapshot.
func (s *StorageService) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		key = s.DefaultKey()
	}

	if s.s3Client != nil {
		return s.fetchFromS3(ctx, key)
	}
	return s.fetchFromLocal(key)
}

// Archive stores a copy of an imported snapshot next to the original, under
// archive/<timestamp>-<checksum>.json.
func (s *StorageService) Archive(ctx context.Context, data []byte, checksum string) (string, error) {
	key := fmt.Sprintf("archive/%s-%s.json", time.Now().UTC().Format("20060102T150405"), shortChecksum(checksum))

	if s.s3Client == nil {
		path, err := s.localPath(key)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create archive directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to archive snapshot: %w", err)
		}
		return key, nil
	}

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.SnapshotBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]*string{"checksum": aws.String(checksum)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive snapshot to S3: %w", err)
	}
	return key, nil
}

// PresignedURL returns a time-limited download link for a stored snapshot.
func (s *StorageService) PresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.SnapshotBucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *StorageService) fetchFromS3(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.SnapshotBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to fetch snapshot from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxSnapshotSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) > maxSnapshotSize {
		return nil, fmt.Errorf("%w: snapshot exceeds %d bytes", ErrSnapshotInvalid, maxSnapshotSize)
	}

	logrus.WithFields(logrus.Fields{
		"bucket": s.config.AWS.SnapshotBucket,
		"key":    key,
		"size":   len(data),
	}).Info("Fetched catalog snapshot")
	return data, nil
}

func (s *StorageService) fetchFromLocal(key string) ([]byte, error) {
	path, err := s.localPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) > maxSnapshotSize {
		return nil, fmt.Errorf("%w: snapshot exceeds %d bytes", ErrSnapshotInvalid, maxSnapshotSize)
	}
	return data, nil
}

// localPath keeps keys inside the snapshot directory.
func (s *StorageService) localPath(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimPrefix(key, "/"))
	if clean == "/" {
		return "", fmt.Errorf("%w: empty snapshot key", ErrSnapshotInvalid)
	}
	return filepath.Join(s.config.AWS.LocalSnapshotDir, clean), nil
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
