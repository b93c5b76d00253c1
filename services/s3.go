package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const folderDeleteConcurrency = 8

// AWSServiceProvider is the object storage used for wardrobe photos,
// thumbnails and collection folders. Production talks to Cloudflare R2.
type AWSServiceProvider interface {
	InitPresignClient(ctx context.Context) error
	PresignLink(ctx context.Context, bucketName string, fileName string) (string, error)
	GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error)
	UploadObject(ctx context.Context, bucketName, key string, body []byte, contentType string) (string, error)
	DownloadObject(ctx context.Context, bucketName, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucketName, key string) error
	ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error)
	DeleteFolder(ctx context.Context, bucketName, prefix string) error
}

type AWSService struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string

	S3Client        *s3.Client
	S3PresignClient *s3.PresignClient
}

func (awsService *AWSService) InitPresignClient(ctx context.Context) error {
	accountId := awsService.AccountID
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(awsService.AccessKeyID, awsService.AccessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %w", err)
	}

	awsService.S3Client = s3.NewFromConfig(cfg)
	awsService.S3PresignClient = s3.NewPresignClient(awsService.S3Client)
	return nil
}

func (awsService *AWSService) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	request, err := awsService.S3PresignClient.PresignPutObject(ctx, &s3.PutObjectInput{Bucket: &bucketName, Key: &fileName})
	if err != nil {
		return "", err
	}
	return request.URL, nil
}

func (awsService *AWSService) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	presignedGetRequest, err := awsService.S3PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %w", err)
	}
	return presignedGetRequest.URL, nil
}

func (awsService *AWSService) UploadObject(ctx context.Context, bucketName, key string, body []byte, contentType string) (string, error) {
	_, err := awsService.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (awsService *AWSService) DownloadObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	out, err := awsService.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (awsService *AWSService) DeleteObject(ctx context.Context, bucketName, key string) error {
	_, err := awsService.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (awsService *AWSService) ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(awsService.S3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// DeleteFolder removes every object under prefix. It keeps going after a
// failed delete and reports all failures together, callers verify the
// outcome with ListObjects.
func (awsService *AWSService) DeleteFolder(ctx context.Context, bucketName, prefix string) error {
	if err := ValidateFolderPrefix(prefix); err != nil {
		return err
	}
	keys, err := awsService.ListObjects(ctx, bucketName, prefix)
	if err != nil {
		return err
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(folderDeleteConcurrency)
	for _, key := range keys {
		p.Go(func(ctx context.Context) error {
			return awsService.DeleteObject(ctx, bucketName, key)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	log.Debug().Str("prefix", prefix).Int("deleted", len(keys)).Msg("storage folder removed")
	return nil
}

// ValidateFolderPrefix rejects empty prefixes and prefixes without a
// trailing slash.
func ValidateFolderPrefix(prefix string) error {
	if strings.TrimSpace(prefix) == "" || prefix == "/" {
		return fmt.Errorf("refusing to delete empty storage prefix")
	}
	if !strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("storage prefix %q must end with a slash", prefix)
	}
	return nil
}

func ItemObjectKey(ownerID uint, id string, ext string, now time.Time) string {
	return fmt.Sprintf("wardrobe/%d/%d_%s%s", ownerID, now.UnixMilli(), id, ext)
}

func ThumbnailObjectKey(ownerID uint, id string) string {
	return fmt.Sprintf("wardrobe/%d/thumbs/%s.jpg", ownerID, id)
}

func CollectionFolder(ownerID uint, id string) string {
	return fmt.Sprintf("collections/%d/%s/", ownerID, id)
}

func InspirationObjectKey(folder string, index int, id string, ext string) string {
	return fmt.Sprintf("%s%d_%s%s", folder, index, id, ext)
}
