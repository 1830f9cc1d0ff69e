package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/barctl/pkg/metrics"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Service runs the managed operations behind the routes.
	Service interface {
		ManageDiskFileSystem(ctx context.Context, req *requests.DiskFileSystem) *responses.Result
		ManageAWSS3(ctx context.Context, req *requests.AWSS3) *responses.Result
		ManageMediaServer(ctx context.Context, req *requests.MediaServer) *responses.Result
	}
	HTTP struct {
		l       *zap.Logger
		path    string
		service Service
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the tool endpoint for service
func NewHTTP(l *zap.Logger, service Service, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:       l.Named("http"),
		path:    "/barctl",
		service: service,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, errors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	reply, errReply := h.handleRequest(r.Context(), route, bytes)
	if errReply != nil {
		http.Error(w, errReply.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(reply)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) handleRequest(ctx context.Context, route Route, jsonBytes []byte) ([]byte, error) {
	start := time.Now()

	reply := h.executeRequest(ctx, route, jsonBytes)
	status := "error"
	if result, ok := reply.(*responses.Result); ok {
		status = string(result.Outcome)
	}

	metrics.ServiceRequestCounter.WithLabelValues(string(route), status).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), status).Observe(time.Since(start).Seconds())

	return h.encodeReply(reply)
}

func (h *HTTP) executeRequest(ctx context.Context, route Route, jsonBytes []byte) any {
	var (
		reply             any
		jsonErr           error
		processIfJSONIsOk = func(err error, processingFunc func()) {
			if err != nil {
				jsonErr = err
				return
			}
			processingFunc()
		}
	)

	switch route {
	case RouteDiskFileSystem:
		req := &requests.DiskFileSystem{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply = h.service.ManageDiskFileSystem(ctx, req)
		})
	case RouteAWSS3:
		req := &requests.AWSS3{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply = h.service.ManageAWSS3(ctx, req)
		})
	case RouteMediaServer:
		req := &requests.MediaServer{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply = h.service.ManageMediaServer(ctx, req)
		})
	default:
		reply = responses.NewError(1, "unknown handler: "+string(route))
	}

	if jsonErr != nil {
		h.l.Error("could not read incoming json", zap.String("route", string(route)), zap.Error(jsonErr))
		reply = responses.NewError(2, "could not read incoming json "+jsonErr.Error())
	}
	return reply
}

// encodeReply wraps reply into the reply envelope
func (h *HTTP) encodeReply(reply any) (bytes []byte, err error) {
	bytes, err = json.Marshal(map[string]any{
		"reply": reply,
	})
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
	}
	return
}
