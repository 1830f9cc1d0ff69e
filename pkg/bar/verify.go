package bar

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/foomo/barctl/pkg/dsa"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const verifyConcurrency = 4

type (
	// BucketVerifier checks that the buckets of a DSA AWS configuration are
	// reachable with its credentials.
	BucketVerifier interface {
		Verify(ctx context.Context, accessID, accessKey string, regions []dsa.Region) error
	}
	// HeadBucketAPI is the part of the S3 API used for verification.
	HeadBucketAPI interface {
		HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	}
	AWSBucketVerifier struct {
		newClient ClientFactory
	}
	AWSBucketVerifierOption func(*AWSBucketVerifier)
	// ClientFactory returns a client for region using static credentials.
	ClientFactory func(ctx context.Context, region, accessID, accessKey string) (HeadBucketAPI, error)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func AWSBucketVerifierWithClientFactory(fn ClientFactory) AWSBucketVerifierOption {
	return func(o *AWSBucketVerifier) {
		o.newClient = fn
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewAWSBucketVerifier(opts ...AWSBucketVerifierOption) *AWSBucketVerifier {
	inst := &AWSBucketVerifier{
		newClient: newS3Client,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Verify sends a HeadBucket for every bucket and combines all failures.
// Regions are checked concurrently, failures keep the order of regions.
func (v *AWSBucketVerifier) Verify(ctx context.Context, accessID, accessKey string, regions []dsa.Region) error {
	var g errgroup.Group
	g.SetLimit(verifyConcurrency)

	errs := make([]error, len(regions))
	for i, region := range regions {
		g.Go(func() error {
			errs[i] = v.verifyRegion(ctx, region, accessID, accessKey)
			return nil
		})
	}
	_ = g.Wait()

	return multierr.Combine(errs...)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (v *AWSBucketVerifier) verifyRegion(ctx context.Context, region dsa.Region, accessID, accessKey string) error {
	client, err := v.newClient(ctx, region.Region, accessID, accessKey)
	if err != nil {
		return fmt.Errorf("region %s: %w", region.Region, err)
	}
	for _, bucket := range region.Buckets {
		if _, headErr := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket.BucketName)}); headErr != nil {
			err = multierr.Append(err, bucketError(region.Region, bucket.BucketName, headErr))
		}
	}
	return err
}

func newS3Client(ctx context.Context, region, accessID, accessKey string) (HeadBucketAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessID, accessKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return s3.NewFromConfig(cfg), nil
}

func bucketError(region, bucket string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("bucket %s in %s: %s", bucket, region, apiErr.ErrorCode())
	}
	return fmt.Errorf("bucket %s in %s: %w", bucket, region, err)
}
