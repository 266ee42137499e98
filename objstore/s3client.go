package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	jsoniter "github.com/json-iterator/go"

	"github.com/hdfgroup/hsds-an/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// S3Client is the production Client/DNClient, backed by aws-sdk-go-v2 — the
// same SDK family already present in the retrieval pack (see DESIGN.md).
type S3Client struct {
	s3     *s3.Client
	bucket string
	http   *http.Client
}

// NewS3Client builds an S3Client from the AN's configuration, validating
// credentials the same way basenode.py's baseInit did (fatal at startup,
// never at request time).
func NewS3Client(ctx context.Context, cfg cmn.Config) (*S3Client, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID, cfg.AWSSecretAccess, "")),
		awsconfig.WithHTTPClient(&http.Client{Timeout: cfg.StoreTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Client{
		s3:     s3.NewFromConfig(awscfg),
		bucket: cfg.BucketName,
		http: &http.Client{
			Timeout: cfg.StoreTimeout,
		},
	}, nil
}

func (c *S3Client) Stat(ctx context.Context, key string) (Stats, error) {
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return Stats{}, ErrNotFound
		}
		return Stats{}, fmt.Errorf("%w: head %s: %v", cmn.ErrStoreIO, key, err)
	}
	s := Stats{}
	if out.ETag != nil {
		s.ETag = *out.ETag
	}
	if out.ContentLength != nil {
		s.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		s.LastModified = out.LastModified.Unix()
	}
	return s, nil
}

func (c *S3Client) GetJSON(ctx context.Context, key string, v any) error {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: get %s: %v", cmn.ErrStoreIO, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", cmn.ErrStoreIO, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", cmn.ErrStoreIO, key, err)
	}
	return nil
}

func (c *S3Client) PutBytes(ctx context.Context, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", cmn.ErrStoreIO, key, err)
	}
	return nil
}

func (c *S3Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Stat(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *S3Client) ListKeys(ctx context.Context, prefix string) ([]ListEntry, error) {
	var out []ListEntry
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", cmn.ErrStoreIO, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			e := ListEntry{Key: *obj.Key}
			if obj.Size != nil {
				e.Stats.Size = *obj.Size
			}
			if obj.ETag != nil {
				e.Stats.ETag = *obj.ETag
			}
			if obj.LastModified != nil {
				e.Stats.LastModified = obj.LastModified.Unix()
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// Delete issues the DN-delete RPC: DELETE
// <dn_url>/<collection>/<objid>?Notify=0.
func (c *S3Client) Delete(ctx context.Context, dnURL, collection, objid string) error {
	url := fmt.Sprintf("%s/%s/%s?Notify=0", dnURL, collection, objid)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build delete request: %v", cmn.ErrDNUnreachable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", cmn.ErrDNUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: dn returned status %d", cmn.ErrDNUnreachable, resp.StatusCode)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var nb *types.NotFound
	return errors.As(err, &nb)
}
