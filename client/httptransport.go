package client

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/foomo/barctl/pkg/handler"
	"github.com/foomo/barctl/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	httpTransport struct {
		client   *http.Client
		endpoint string
	}
	HTTPTransportOption func(*httpTransport)
)

// NewHTTPTransport will create a new http transport for the given server and client.
// Caution: the provided server url is not validated!
func NewHTTPTransport(server string, opts ...HTTPTransportOption) transport {
	inst := &httpTransport{
		endpoint: server,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HTTPTransportWithHTTPClient(v *http.Client) HTTPTransportOption {
	return func(o *httpTransport) {
		if v != nil {
			o.client = v
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (ht *httpTransport) shutdown() {
	ht.client.CloseIdleConnections()
}

func (ht *httpTransport) call(ctx context.Context, route handler.Route, request any, response any) error {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		ht.endpoint+"/"+string(route),
		bytes.NewBuffer(requestBytes),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResponse, err := ht.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return errors.Errorf("non 200 reply: %d", httpResponse.StatusCode)
	}
	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	var env struct {
		Reply jsoniter.RawMessage `json:"reply"`
	}
	if err := json.Unmarshal(responseBytes, &env); err != nil {
		return errors.Wrap(err, "failed to decode reply")
	}
	if len(env.Reply) == 0 {
		return errors.New("empty reply")
	}

	// an error reply carries a non zero code and no outcome
	var probe struct {
		Code    int    `json:"code"`
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(env.Reply, &probe); err == nil && probe.Code != 0 && probe.Outcome == "" {
		replyErr := &responses.Error{}
		if err := json.Unmarshal(env.Reply, replyErr); err != nil {
			return errors.Wrap(err, "failed to decode error reply")
		}
		return replyErr
	}
	return json.Unmarshal(env.Reply, response)
}
