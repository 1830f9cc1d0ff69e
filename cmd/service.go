package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/snapshot"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// supportedBlobSchemes lists the URL schemes supported by blob storage
var supportedBlobSchemes = []string{"gs://", "s3://"}

// tooling bundles what a tool operation needs
type tooling struct {
	client  *dsa.Client
	history *snapshot.History
	service *bar.Service
}

// newTooling wires the DSA client and the snapshot history into the tool service.
// history is nil when snapshots are disabled.
func newTooling(ctx context.Context, v *viper.Viper, l *zap.Logger) (*tooling, error) {
	client, err := newDSAClient(v, l)
	if err != nil {
		return nil, err
	}

	t := &tooling{client: client}
	var opts []bar.Option
	if snapshotEnabledFlag(v) {
		t.history, err = newHistory(ctx, v, l)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bar.WithHistory(t.history))
	}
	t.service = bar.New(l.Named("inst.bar"), client, opts...)

	return t, nil
}

func (t *tooling) Close() error {
	if t.history == nil {
		return nil
	}
	return t.history.Close()
}

func newDSAClient(v *viper.Viper, l *zap.Logger) (*dsa.Client, error) {
	host := dsaHostFlag(v)
	if host == "" {
		return nil, errors.New("dsa host is required (--dsa-host or DSA_HOST)")
	}
	protocol := dsaProtocolFlag(v)
	if protocol != "http" && protocol != "https" {
		return nil, errors.Errorf("unsupported dsa protocol: %s (supported: http, https)", protocol)
	}
	retries := dsaRetriesFlag(v)
	if retries < 0 {
		return nil, errors.Errorf("dsa retries must not be negative: %d", retries)
	}

	opts := []dsa.Option{
		dsa.WithHTTPClient(newDSAHTTPClient(v, l)),
		dsa.WithRetries(retries),
	}
	if username := dsaUsernameFlag(v); username != "" {
		opts = append(opts, dsa.WithBasicAuth(username, dsaPasswordFlag(v)))
	}

	return dsa.New(l.Named("inst.dsa"), fmt.Sprintf("%s://%s:%d", protocol, host, dsaPortFlag(v)), opts...)
}

func newDSAHTTPClient(v *viper.Viper, l *zap.Logger) *http.Client {
	if dsaVerifySSLFlag(v) {
		return keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTimeout(dsaTimeoutFlag(v)),
			keelhttp.HTTPClientWithTelemetry(),
		)
	}

	l.Warn("dsa certificate verification is disabled")
	c := keelhttp.NewHTTPClient(
		keelhttp.HTTPClientWithTimeout(dsaTimeoutFlag(v)),
	)
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	c.Transport = transport
	return c
}

func newHistory(ctx context.Context, v *viper.Viper, l *zap.Logger) (*snapshot.History, error) {
	storage, err := createStorage(ctx, v, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot storage")
	}
	history, err := snapshot.NewHistory(l.Named("inst.history"),
		snapshot.HistoryWithStorage(storage),
		snapshot.HistoryWithDir(snapshotDirFlag(v)),
		snapshot.HistoryWithLimit(snapshotLimitFlag(v)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot history")
	}
	return history, nil
}

// createStorage creates a storage backend based on the configuration
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (snapshot.Storage, error) {
	storageType := snapshotStorageTypeFlag(v)
	blobBucket := snapshotBlobBucketFlag(v)
	blobPrefix := snapshotBlobPrefixFlag(v)

	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but snapshot-storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	l.Debug("creating snapshot storage", zap.String("type", storageType))

	switch storageType {
	case "blob":
		if blobBucket == "" {
			return nil, errors.New("blob bucket URL is required when snapshot-storage-type is 'blob' (supported schemes: gs://, s3://)")
		}
		if !isValidBlobScheme(blobBucket) {
			return nil, errors.Errorf("unsupported blob storage URL scheme in %q; supported schemes: gs://, s3://", blobBucket)
		}
		l.Debug("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", blobPrefix),
		)
		return snapshot.NewBlobStorage(ctx, blobBucket, blobPrefix)
	case "filesystem", "":
		dir := snapshotDirFlag(v)
		l.Debug("using filesystem storage", zap.String("dir", dir))
		return snapshot.NewFilesystemStorage(dir)
	default:
		return nil, errors.Errorf("unknown snapshot storage type: %s (supported: filesystem, blob)", storageType)
	}
}

// isValidBlobScheme checks if the bucket URL has a supported scheme
func isValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}
