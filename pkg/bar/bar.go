// Package bar implements the backup-and-restore administration operations on
// top of the DSA REST API. Every operation returns a *responses.Result; failures
// are reported through its outcome, never as Go errors.
package bar

import (
	"context"
	"fmt"
	"strings"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/metrics"
	"github.com/foomo/barctl/pkg/reconcile"
	"github.com/foomo/barctl/pkg/snapshot"
	"github.com/foomo/barctl/responses"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Requester sends a single request to the DSA server.
type Requester interface {
	Do(ctx context.Context, req *dsa.Request) (*dsa.Response, error)
}

// Ensure the DSA client implements Requester.
var _ Requester = (*dsa.Client)(nil)

const (
	ToolDiskFileSystem = "bar_manageDsaDiskFileSystem"
	ToolAWSS3          = "bar_manageAWSS3Operations"
	ToolMediaServer    = "bar_manageMediaServer"

	ResourceDiskFileSystem = "disk-file-system"
	ResourceAWSS3          = "aws-s3"
	ResourceMediaServer    = "media-server"
)

const (
	OperationList                  = "list"
	OperationConfig                = "config"
	OperationRemove                = "remove"
	OperationDeleteAll             = "delete_all"
	OperationGet                   = "get"
	OperationAdd                   = "add"
	OperationDelete                = "delete"
	OperationListConsumers         = "list_consumers"
	OperationListConsumersByServer = "list_consumers_by_server"
)

var (
	DiskFileSystemOperations = []string{OperationList, OperationConfig, OperationDeleteAll, OperationRemove}
	AWSS3Operations          = []string{OperationList, OperationConfig, OperationDeleteAll, OperationRemove}
	MediaServerOperations    = []string{
		OperationList, OperationGet, OperationAdd, OperationDelete,
		OperationListConsumers, OperationListConsumersByServer,
	}
)

type (
	Service struct {
		l          *zap.Logger
		requester  Requester
		history    *snapshot.History
		serializer *reconcile.Serializer
		verifier   BucketVerifier
	}
	Option func(*Service)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, requester Requester, opts ...Option) *Service {
	inst := &Service{
		l:          l.Named("bar"),
		requester:  requester,
		serializer: reconcile.NewSerializer(),
		verifier:   NewAWSBucketVerifier(),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithHistory stores a snapshot of every collection before it is replaced.
func WithHistory(v *snapshot.History) Option {
	return func(o *Service) {
		o.history = v
	}
}

func WithBucketVerifier(v BucketVerifier) Option {
	return func(o *Service) {
		o.verifier = v
	}
}

// WithSerializer shares one serializer between several services.
func WithSerializer(v *reconcile.Serializer) Option {
	return func(o *Service) {
		if v != nil {
			o.serializer = v
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Service) finish(resource, tool, operation string, res *responses.Result, args map[string]any) *responses.Result {
	res.WithMetadata(tool, operation, args)
	metrics.OperationCounter.WithLabelValues(resource, operation, string(res.Outcome)).Inc()

	l := s.l.With(
		zap.String("resource", resource),
		zap.String("operation", operation),
		zap.String("outcome", string(res.Outcome)),
	)
	if res.Succeeded() {
		l.Info("operation completed")
	} else {
		l.Warn("operation did not succeed")
	}
	return res
}

func (s *Service) snapshot(ctx context.Context, collection string, items any) {
	if s.history == nil {
		return
	}
	data, err := json.Marshal(items)
	if err == nil {
		_, err = s.history.Add(ctx, collection, data)
	}
	if err != nil {
		metrics.SnapshotFailedCounter.WithLabelValues(collection).Inc()
		s.l.Warn("failed to snapshot collection", zap.String("collection", collection), zap.Error(err))
	}
}

func unknownOperation(operation string, valid []string) *responses.Result {
	return responses.NewResult(responses.OutcomeUnknownOperation,
		fmt.Sprintf("Error: Unknown operation '%s'. Available operations: %s", operation, strings.Join(valid, ", ")),
	)
}

func invalidInput(format string, args ...any) *responses.Result {
	return responses.NewResult(responses.OutcomeInvalidInput, "Error: "+fmt.Sprintf(format, args...))
}

func transportError(action string, err error) *responses.Result {
	return responses.NewResult(responses.OutcomeTransportError, fmt.Sprintf("Error %s: %v", action, err))
}

// rejected maps a failed DSA answer to its outcome.
func rejected(resp *dsa.Response) responses.Outcome {
	if dsa.Classify(resp) == dsa.KindInUse {
		return responses.OutcomeConflict
	}
	return responses.OutcomeValidationFailed
}
