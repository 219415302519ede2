package counter

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kryptco/u2fkeyd"
)

// S3Config names the bucket/key the counter is persisted under, and static
// credentials — mirroring malbeclabs-doublezero's s3-uploader config.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Key             string
	EndpointURL     *string // for MinIO or similar S3-compatible stores
}

// S3Provider persists the counter as a single 4-byte S3 object, the same
// GetObject/PutObject shape malbeclabs-doublezero/controlplane/s3-uploader's
// Uploader uses, demonstrating spec.md §4.6's persistence medium is
// genuinely pluggable: swapping FileProvider for S3Provider changes no
// caller of counter.Provider.
type S3Provider struct {
	mu     sync.Mutex
	client *s3.Client
	bucket string
	key    string
}

// NewS3Provider loads AWS config from cfg's static credentials, optionally
// pointed at a custom endpoint, exactly as uploader.New does.
func NewS3Provider(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.EndpointURL != nil && *cfg.EndpointURL != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = cfg.EndpointURL
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Provider{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Next reads the current counter (treating a missing object as zero),
// increments it, and writes the new value back before returning it.
func (p *S3Provider) Next() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := context.Background()
	current, err := p.read(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", u2f.ErrCounterPersist, err)
	}

	next := current + 1
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], next)

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
		Body:   bytes.NewReader(b[:]),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s", u2f.ErrCounterPersist, err)
	}
	return next, nil
}

func (p *S3Provider) read(ctx context.Context) (uint32, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
	})
	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("counter object is not 4 bytes")
	}
	return binary.BigEndian.Uint32(b), nil
}
