package bar_test

import (
	"context"
	"testing"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/snapshot"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob/memblob"
)

type staticVerifier struct {
	err error
}

func (v staticVerifier) Verify(context.Context, string, string, []dsa.Region) error {
	return v.err
}

func s3Config(regions ...dsa.Region) bar.S3Config {
	return bar.S3Config{
		AccessID:        "AKIAEXAMPLE",
		AccessKey:       "secret",
		AcctName:        "backup-account",
		BucketName:      "primary",
		BucketsByRegion: regions,
	}
}

func TestListAWSS3Empty(t *testing.T) {
	s, _ := newService(t)

	res := s.ListAWSS3(t.Context())
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "No AWS backup solutions configured")
}

func TestListAWSS3(t *testing.T) {
	s, server := newService(t)
	server.SetAWS(&dsa.AWSConfig{
		AcctName: "acct",
		BucketsByRegion: dsa.OneOrMany[dsa.Region]{
			{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{
				{BucketName: "b1", PrefixList: dsa.OneOrMany[dsa.Prefix]{{PrefixName: "p1", StorageDevices: 4}}},
				{BucketName: "b2"},
			}},
			{Region: "eu-west-1"},
		},
	})

	res := s.ListAWSS3(t.Context())
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "Total Buckets Configured: 2")
	assert.Contains(t, res.Text, "Region #1: us-east-1")
	assert.Contains(t, res.Text, "Prefix #1: p1")
	assert.Contains(t, res.Text, "Storage Devices: 4")
	assert.Contains(t, res.Text, "No buckets configured in this region")
}

func TestConfigAWSS3Merges(t *testing.T) {
	s, server := newService(t)
	server.SetAWS(&dsa.AWSConfig{
		AccessID:  "AKIAEXAMPLE",
		AccessKey: "old",
		BucketsByRegion: dsa.OneOrMany[dsa.Region]{
			{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{
				{BucketName: "b1", PrefixList: dsa.OneOrMany[dsa.Prefix]{{PrefixName: "p1", StorageDevices: 2}}},
			}},
			{Region: "eu-west-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b3"}}},
		},
	})

	res := s.ConfigAWSS3(t.Context(), s3Config(
		dsa.Region{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b2"}}},
		dsa.Region{Region: "ap-south-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b4"}}},
	))
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "Action: Updated")
	assert.NotContains(t, res.Text, "secret")

	cfg := server.AWS()
	require.NotNil(t, cfg)
	assert.Equal(t, "secret", cfg.AccessKey)
	assert.True(t, cfg.Viewpoint)
	require.Len(t, cfg.BucketsByRegion, 3)
	assert.Equal(t, "us-east-1", cfg.BucketsByRegion[0].Region)
	assert.Equal(t, []string{"b1", "b2"}, []string{
		cfg.BucketsByRegion[0].Buckets[0].BucketName,
		cfg.BucketsByRegion[0].Buckets[1].BucketName,
	})
	assert.Len(t, cfg.BucketsByRegion[0].Buckets[0].PrefixList, 1)
	assert.Equal(t, "eu-west-1", cfg.BucketsByRegion[1].Region)
	assert.Equal(t, "ap-south-1", cfg.BucketsByRegion[2].Region)
}

func TestConfigAWSS3KeepsBucketAttributes(t *testing.T) {
	s, server := newService(t)
	server.SetAWS(&dsa.AWSConfig{
		AcctName: "backup-account",
		BucketsByRegion: dsa.OneOrMany[dsa.Region]{
			{Region: "us-east-1", Extra: dsa.Extra{"endpoint": jsoniter.RawMessage(`"s3.us-east-1.amazonaws.com"`)}, Buckets: dsa.OneOrMany[dsa.Bucket]{
				{BucketName: "b1", Extra: dsa.Extra{"versioned": jsoniter.RawMessage(`true`)}},
			}},
		},
	})

	res := s.ConfigAWSS3(t.Context(), s3Config(
		dsa.Region{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{
			{BucketName: "b1", PrefixList: dsa.OneOrMany[dsa.Prefix]{{PrefixName: "p1", StorageDevices: 2}}},
		}},
	))
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)

	region := server.AWS().BucketsByRegion[0]
	assert.JSONEq(t, `"s3.us-east-1.amazonaws.com"`, string(region.Extra["endpoint"]))
	require.Len(t, region.Buckets, 1)
	assert.JSONEq(t, `true`, string(region.Buckets[0].Extra["versioned"]))
	assert.Len(t, region.Buckets[0].PrefixList, 1)
}

func TestConfigAWSS3OtherAccountStartsEmpty(t *testing.T) {
	history, err := snapshot.NewHistory(zaptest.NewLogger(t),
		snapshot.HistoryWithStorage(snapshot.NewBlobStorageFromBucket(memblob.OpenBucket(nil), "snapshots")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	s, server := newService(t, bar.WithHistory(history))
	server.SetAWS(&dsa.AWSConfig{
		AccessID:  "AKIAOLD",
		AccessKey: "old-secret",
		AcctName:  "legacy-account",
		BucketsByRegion: dsa.OneOrMany[dsa.Region]{
			{Region: "eu-west-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "legacy"}}},
		},
	})

	res := s.ConfigAWSS3(t.Context(), s3Config(
		dsa.Region{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b1"}}},
	))
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "Action: Added")
	assert.Contains(t, res.Text, "Replaced Account: legacy-account")

	cfg := server.AWS()
	require.NotNil(t, cfg)
	assert.Equal(t, "backup-account", cfg.AcctName)
	require.Len(t, cfg.BucketsByRegion, 1)
	assert.Equal(t, "us-east-1", cfg.BucketsByRegion[0].Region)

	// the replaced account stays recoverable, without its secret
	data, err := history.Get(t.Context(), bar.ResourceAWSS3, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), "legacy-account")
	assert.Contains(t, string(data), "eu-west-1")
	assert.NotContains(t, string(data), "old-secret")
}

func TestConfigAWSS3Initial(t *testing.T) {
	s, server := newService(t)

	res := s.ConfigAWSS3(t.Context(), s3Config(
		dsa.Region{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b1"}}},
	))
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "Action: Added")
	require.NotNil(t, server.AWS())
	assert.Len(t, server.AWS().BucketsByRegion, 1)
}

func TestConfigAWSS3InvalidRegion(t *testing.T) {
	s, server := newService(t)

	res := s.ConfigAWSS3(t.Context(), s3Config(dsa.Region{Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b1"}}}))
	assert.Equal(t, responses.OutcomeInvalidInput, res.Outcome)
	assert.Contains(t, res.Text, "bucketsByRegion[0].region")
	assert.Empty(t, server.Requests())
}

func TestConfigAWSS3VerifyFailure(t *testing.T) {
	err := multierr.Combine(errors.New("bucket b1 in us-east-1: NotFound"), errors.New("bucket b2 in us-east-1: Forbidden"))
	s, server := newService(t, bar.WithBucketVerifier(staticVerifier{err: err}))

	res := s.ManageAWSS3(t.Context(), &requests.AWSS3{
		Operation:       bar.OperationConfig,
		AccessID:        "AKIAEXAMPLE",
		AccessKey:       "secret",
		AcctName:        "acct",
		BucketName:      "b1",
		BucketsByRegion: requests.BucketsByRegion{{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b1"}, {BucketName: "b2"}}}},
		Verify:          true,
	})
	assert.Equal(t, responses.OutcomeInvalidInput, res.Outcome)
	assert.Contains(t, res.Text, "NotFound")
	assert.Contains(t, res.Text, "Forbidden")
	assert.Empty(t, server.Requests())
	assert.Equal(t, "********", res.Metadata.Arguments["accessKey"])
}

func TestConfigAWSS3VerifySuccess(t *testing.T) {
	s, server := newService(t, bar.WithBucketVerifier(staticVerifier{}))

	cfg := s3Config(dsa.Region{Region: "us-east-1", Buckets: dsa.OneOrMany[dsa.Bucket]{{BucketName: "b1"}}})
	cfg.Verify = true
	res := s.ConfigAWSS3(t.Context(), cfg)
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.NotNil(t, server.AWS())
}

func TestAWSS3NotImplemented(t *testing.T) {
	requester := &MockRequester{}
	s := bar.New(zaptest.NewLogger(t), requester)

	for _, op := range []string{bar.OperationRemove, bar.OperationDeleteAll} {
		res := s.ManageAWSS3(t.Context(), &requests.AWSS3{Operation: op})
		assert.Equal(t, responses.OutcomeNotImplemented, res.Outcome)
		assert.Contains(t, res.Text, op)
	}
	requester.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}
