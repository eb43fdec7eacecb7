package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
)

type URLMode string

const (
	URLModePresigned URLMode = "presigned"
	URLModePublic    URLMode = "public"
)

// S3Uploader stores screenshots in an S3-compatible bucket under a key
// prefix and links them by public or presigned URL.
type S3Uploader struct {
	client       *s3.Client
	presign      *s3.PresignClient
	bucket       string
	endpoint     string
	region       string
	usePathStyle bool
	urlMode      URLMode
	presignedTTL time.Duration
	publicRead   bool
}

func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, models.NewInitError("s3 bucket is required", nil)
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	mode := URLMode(cfg.URLMode)
	if mode == "" {
		mode = URLModePublic
	}
	if mode != URLModePresigned && mode != URLModePublic {
		return nil, models.NewInitError(fmt.Sprintf("unsupported s3 url mode: %s", mode), nil)
	}
	if cfg.PresignedTTL <= 0 {
		cfg.PresignedTTL = 7 * 24 * time.Hour
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, models.NewInitError("failed to create aws config", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Uploader{
		client:       client,
		presign:      s3.NewPresignClient(client),
		bucket:       strings.TrimSpace(cfg.Bucket),
		endpoint:     endpoint,
		region:       cfg.Region,
		usePathStyle: cfg.UsePathStyle,
		urlMode:      mode,
		presignedTTL: cfg.PresignedTTL,
		publicRead:   mode == URLModePublic && cfg.PublicReadACL,
	}, nil
}

// Upload puts the file at <prefix>/<file name> and returns its link.
func (u *S3Uploader) Upload(ctx context.Context, localPath, prefix string) (*models.UploadResult, error) {
	body, err := os.ReadFile(localPath)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeUploadIO, "cannot read screenshot", err)
	}

	name := filepath.Base(localPath)
	key := objectKey(prefix, name)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("image/png"),
	}
	// Without the ACL a public link only resolves on a bucket that is
	// already public by policy.
	if u.publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	_, err = u.client.PutObject(ctx, input)
	if err != nil {
		return nil, classifyS3(err, "put object failed")
	}

	link, err := u.objectURL(ctx, key)
	if err != nil {
		return nil, classifyS3(err, "presign failed")
	}
	return &models.UploadResult{FileID: key, Name: name, ShareLink: link}, nil
}

func (u *S3Uploader) objectURL(ctx context.Context, key string) (string, error) {
	if u.urlMode == URLModePublic {
		return u.publicURL(key), nil
	}
	request, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.presignedTTL))
	if err != nil {
		return "", err
	}
	return request.URL, nil
}

func (u *S3Uploader) publicURL(key string) string {
	escapedKey := strings.ReplaceAll(url.PathEscape(key), "%2F", "/")
	endpoint := u.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", u.region)
	}
	if u.usePathStyle {
		return fmt.Sprintf("%s/%s/%s", endpoint, u.bucket, escapedKey)
	}
	host := strings.TrimPrefix(endpoint, "https://")
	host = strings.TrimPrefix(host, "http://")
	return fmt.Sprintf("https://%s.%s/%s", u.bucket, host, escapedKey)
}

func objectKey(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
