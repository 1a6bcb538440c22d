package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Scheme — схема расположений в S3.
const S3Scheme = "s3"

// S3Store — хранилище в Amazon S3.
type S3Store struct {
	client     s3iface.S3API
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

var _ Store = (*S3Store)(nil)

// NewS3 создаёт S3Store. cfg может быть nil: тогда регион и credentials
// берутся из окружения (AWS_REGION, AWS_PROFILE и т.д.).
func NewS3(cfg *aws.Config) (*S3Store, error) {
	opts := session.Options{SharedConfigState: session.SharedConfigEnable}
	if cfg != nil {
		opts.Config = *cfg
	}
	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("new aws session: %w", err)
	}
	return NewS3WithClient(s3.New(sess)), nil
}

// NewS3WithClient создаёт S3Store поверх готового клиента.
func NewS3WithClient(client s3iface.S3API) *S3Store {
	return &S3Store{
		client:     client,
		uploader:   s3manager.NewUploaderWithClient(client),
		downloader: s3manager.NewDownloaderWithClient(client),
	}
}

func (s *S3Store) Exists(ctx context.Context, loc string) (bool, error) {
	bucket, key, err := parseS3Path(loc)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("head %s: %w", loc, err)
	}
	return true, nil
}

func (s *S3Store) Delete(ctx context.Context, loc string) error {
	bucket, key, err := parseS3Path(loc)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", loc, err)
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, localPath, loc string) error {
	bucket, key, err := parseS3Path(loc)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Объект в S3 появляется атомарно после завершения загрузки.
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", loc, err)
	}
	return nil
}

func (s *S3Store) Download(ctx context.Context, loc, localPath string) error {
	bucket, key, err := parseS3Path(loc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = s.downloader.DownloadWithContext(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return fmt.Errorf("download %s: %w", loc, err)
	}
	return os.Rename(tmpName, localPath)
}

// parseS3Path разбирает s3://bucket/key.
func parseS3Path(loc string) (bucket, key string, err error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if u.Scheme != S3Scheme || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q is not an s3 location", ErrInvalidLocation, loc)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: %q has no key", ErrInvalidLocation, loc)
	}
	return u.Host, key, nil
}

func isNotFound(err error) bool {
	var reqerr awserr.RequestFailure
	if errors.As(err, &reqerr) && reqerr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
