package bar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
)

const DefaultPoolSharedPipes = 50

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ManageMediaServer dispatches a media server request.
func (s *Service) ManageMediaServer(ctx context.Context, req *requests.MediaServer) *responses.Result {
	name := strings.TrimSpace(req.ServerName)

	var res *responses.Result
	switch req.Operation {
	case OperationList:
		res = s.ListMediaServers(ctx)
	case OperationGet:
		if name == "" {
			res = invalidInput("server_name is required for 'get' operation")
		} else {
			res = s.GetMediaServer(ctx, name)
		}
	case OperationAdd:
		switch {
		case name == "":
			res = invalidInput("server_name is required for 'add' operation")
		case req.Port == 0:
			res = invalidInput("port is required for 'add' operation")
		case len(req.IPAddresses) == 0:
			res = invalidInput("ip_addresses is required for 'add' operation")
		default:
			pipes := DefaultPoolSharedPipes
			if req.PoolSharedPipes != nil {
				pipes = *req.PoolSharedPipes
			}
			res = s.AddMediaServer(ctx, dsa.MediaServer{
				ServerName:      name,
				Port:            req.Port,
				IPInfo:          req.IPAddresses,
				PoolSharedPipes: pipes,
			})
		}
	case OperationDelete:
		if name == "" {
			res = invalidInput("server_name is required for 'delete' operation")
		} else {
			res = s.DeleteMediaServer(ctx, name, req.Virtual)
		}
	case OperationListConsumers:
		res = s.ListMediaServerConsumers(ctx)
	case OperationListConsumersByServer:
		if name == "" {
			res = invalidInput("server_name is required for 'list_consumers_by_server' operation")
		} else {
			res = s.ListMediaServerConsumersByServer(ctx, name)
		}
	default:
		res = unknownOperation(req.Operation, MediaServerOperations)
	}
	return s.finish(ResourceMediaServer, ToolMediaServer, req.Operation, res, mediaServerArguments(req))
}

func (s *Service) ListMediaServers(ctx context.Context) *responses.Result {
	return s.mediaServerCall(ctx, "list media servers", &dsa.Request{
		Method:   http.MethodGet,
		Endpoint: dsa.EndpointMediaServers,
	})
}

// GetMediaServer returns the details of name. When DSA does not know the
// server the answer lists the names it does know.
func (s *Service) GetMediaServer(ctx context.Context, name string) *responses.Result {
	action := fmt.Sprintf("get media server '%s'", name)
	resp, err := s.requester.Do(ctx, &dsa.Request{Method: http.MethodGet, Endpoint: dsa.MediaServerEndpoint(name)})
	if err != nil {
		return transportError("getting media server '"+name+"'", err)
	}
	if resp.IsValid() && !componentNotFound(resp) {
		return responses.NewResult(responses.OutcomeSuccess, prettyJSON(resp))
	}
	if !componentNotFound(resp) {
		return responses.NewResult(rejected(resp), failure(action, resp))
	}

	r := &report{}
	r.line("Media server '%s' not found", name)
	r.blank()
	r.line("Available media servers:")
	names, err := s.mediaServerNames(ctx)
	if err != nil {
		r.line("   (could not be listed: %v)", err)
	} else {
		r.bullets(names, "(none)")
	}
	return responses.NewResult(responses.OutcomeNotFound, r.String())
}

// AddMediaServer registers a new media server.
func (s *Service) AddMediaServer(ctx context.Context, server dsa.MediaServer) *responses.Result {
	server.ServerName = strings.TrimSpace(server.ServerName)
	if res := validateMediaServer(server); res != nil {
		return res
	}
	return s.mediaServerCall(ctx, fmt.Sprintf("add media server '%s'", server.ServerName), &dsa.Request{
		Method:   http.MethodPost,
		Endpoint: dsa.EndpointMediaServers,
		Body:     server,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"*/*"},
		},
	})
}

// DeleteMediaServer removes name, flagged as virtual if requested.
func (s *Service) DeleteMediaServer(ctx context.Context, name string, virtual bool) *responses.Result {
	req := &dsa.Request{
		Method:   http.MethodDelete,
		Endpoint: dsa.MediaServerEndpoint(name),
	}
	if virtual {
		req.Params = url.Values{"virtual": []string{"true"}}
	}
	return s.mediaServerCall(ctx, fmt.Sprintf("delete media server '%s'", name), req)
}

func (s *Service) ListMediaServerConsumers(ctx context.Context) *responses.Result {
	return s.mediaServerCall(ctx, "list media server consumers", &dsa.Request{
		Method:   http.MethodGet,
		Endpoint: dsa.EndpointListConsumers,
	})
}

func (s *Service) ListMediaServerConsumersByServer(ctx context.Context, name string) *responses.Result {
	return s.mediaServerCall(ctx, fmt.Sprintf("list consumers for media server '%s'", name), &dsa.Request{
		Method:   http.MethodGet,
		Endpoint: dsa.ConsumersEndpoint(name),
	})
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// mediaServerCall sends req and renders the whole answer as indented JSON.
func (s *Service) mediaServerCall(ctx context.Context, action string, req *dsa.Request) *responses.Result {
	resp, err := s.requester.Do(ctx, req)
	if err != nil {
		return transportError("trying to "+action, err)
	}
	if !resp.IsValid() {
		return responses.NewResult(rejected(resp), failure(action, resp))
	}
	return responses.NewResult(responses.OutcomeSuccess, prettyJSON(resp))
}

func (s *Service) mediaServerNames(ctx context.Context) ([]string, error) {
	resp, err := s.requester.Do(ctx, &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointMediaServers})
	if err != nil {
		return nil, err
	}
	if !resp.IsValid() {
		return nil, resp.Err()
	}
	var body any
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	collectServerNames(body, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// collectServerNames walks a decoded body for serverName values. The list
// answer nests servers differently between DSA versions.
func collectServerNames(v any, seen map[string]struct{}) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if name, ok := child.(string); ok && k == "serverName" && name != "" {
				seen[name] = struct{}{}
				continue
			}
			collectServerNames(child, seen)
		}
	case []any:
		for _, child := range t {
			collectServerNames(child, seen)
		}
	}
}

func componentNotFound(resp *dsa.Response) bool {
	return resp.FoundComponent != nil && !*resp.FoundComponent
}

func validateMediaServer(server dsa.MediaServer) *responses.Result {
	if server.ServerName == "" {
		return invalidInput("server name is required and cannot be empty")
	}
	if server.Port < 1 || server.Port > 65535 {
		return invalidInput("port must be between 1 and 65535")
	}
	if len(server.IPInfo) == 0 {
		return invalidInput("at least one IP address is required")
	}
	for i, ip := range server.IPInfo {
		if strings.TrimSpace(ip.IPAddress) == "" || strings.TrimSpace(ip.Netmask) == "" {
			return invalidInput("ip_addresses[%d] needs both ipAddress and netmask", i)
		}
	}
	if server.PoolSharedPipes < 1 || server.PoolSharedPipes > 99 {
		return invalidInput("pool_shared_pipes must be between 1 and 99")
	}
	return nil
}

func mediaServerArguments(req *requests.MediaServer) map[string]any {
	args := map[string]any{"operation": req.Operation}
	if req.ServerName != "" {
		args["server_name"] = req.ServerName
	}
	if req.Port != 0 {
		args["port"] = req.Port
	}
	if len(req.IPAddresses) > 0 {
		args["ip_addresses"] = len(req.IPAddresses)
	}
	if req.PoolSharedPipes != nil {
		args["pool_shared_pipes"] = *req.PoolSharedPipes
	}
	if req.Virtual {
		args["virtual"] = true
	}
	return args
}
