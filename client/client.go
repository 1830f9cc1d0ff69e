package client

import (
	"context"
	"strings"

	"github.com/foomo/barctl/pkg/handler"
	"github.com/foomo/barctl/pkg/utils"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
	"github.com/pkg/errors"
)

// Client a barctl tool service client
type Client struct {
	t transport
}

// New client for the given transport
func New(t transport) *Client {
	return &Client{
		t: t,
	}
}

// NewHTTPClient returns a client for the tool service exported at server,
// e.g. http://localhost:8080/barctl
func NewHTTPClient(server string, opts ...HTTPTransportOption) (*Client, error) {
	if server == "" {
		return nil, errors.New("empty server url")
	}
	if !utils.IsValidURL(server) {
		return nil, errors.Errorf("invalid server url %q", server)
	}
	return New(NewHTTPTransport(strings.TrimSuffix(server, "/"), opts...)), nil
}

// ManageDiskFileSystem run a disk file system operation
func (c *Client) ManageDiskFileSystem(ctx context.Context, request *requests.DiskFileSystem) (*responses.Result, error) {
	response := &responses.Result{}
	if err := c.t.call(ctx, handler.RouteDiskFileSystem, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ManageAWSS3 run an AWS S3 target operation
func (c *Client) ManageAWSS3(ctx context.Context, request *requests.AWSS3) (*responses.Result, error) {
	response := &responses.Result{}
	if err := c.t.call(ctx, handler.RouteAWSS3, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ManageMediaServer run a media server operation
func (c *Client) ManageMediaServer(ctx context.Context, request *requests.MediaServer) (*responses.Result, error) {
	response := &responses.Result{}
	if err := c.t.call(ctx, handler.RouteMediaServer, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Call any route, mostly useful to talk to newer servers
func (c *Client) Call(ctx context.Context, route handler.Route, request any) (*responses.Result, error) {
	response := &responses.Result{}
	if err := c.t.call(ctx, route, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) ShutDown() {
	c.t.shutdown()
}
