package storage

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// AssetMetadata is what the worker needs to route an asset: its display name
// and its content type as recorded by the uploader.
type AssetMetadata struct {
	Name     string
	MimeType string
}

type ItfStorage interface {
	GetMetadata(ctx context.Context, assetID, bucketID string) (AssetMetadata, error)
	Download(ctx context.Context, assetID, bucketID, dst string) error
}

type storageClient struct {
	client     *s3.S3
	downloader *s3manager.Downloader
}

func New() (ItfStorage, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &storageClient{
		client:     s3.New(sess),
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

func (s *storageClient) GetMetadata(ctx context.Context, assetID, bucketID string) (AssetMetadata, error) {
	head, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return AssetMetadata{}, fmt.Errorf("failed to fetch metadata for %s/%s: %w", bucketID, assetID, err)
	}

	name := assetID
	if fn, ok := head.Metadata["Filename"]; ok && fn != nil && *fn != "" {
		name = *fn
	} else {
		name = path.Base(assetID)
	}

	mimeType := ""
	if head.ContentType != nil {
		mimeType = *head.ContentType
	}

	return AssetMetadata{Name: name, MimeType: mimeType}, nil
}

// Download writes the asset bytes to dst. The file is created by the caller's
// scratch-path rules; on error the partial file is left for the caller's
// cleanup pass.
func (s *storageClient) Download(ctx context.Context, assetID, bucketID, dst string) error {
	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create scratch file %s: %w", dst, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			fmt.Println("Failed to close scratch file")
		}
	}()

	_, err = s.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucketID, assetID, err)
	}

	return nil
}

func newSession() (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	}

	// Point at a non-AWS endpoint (MinIO and friends) when configured.
	if endpoint := os.Getenv("AWS_S3_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}
