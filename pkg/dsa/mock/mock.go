// Package mock serves an in-memory DSA server for tests.
package mock

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/foomo/barctl/pkg/dsa"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Server keeps the DSA collections in memory and records every call.
	Server struct {
		*httptest.Server
		mu           sync.Mutex
		fileSystems  []dsa.FileSystem
		aws          *dsa.AWSConfig
		mediaServers map[string]dsa.MediaServer
		// inUse maps a file system path to the job still using it
		inUse    map[string]string
		down     map[string]bool
		requests []string
	}
	envelope map[string]any
)

// NewServer starts a DSA fake that is closed with tb.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		mediaServers: map[string]dsa.MediaServer{},
		inUse:        map[string]string{},
		down:         map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /"+dsa.EndpointDiskFileSystem, s.listFileSystems)
	mux.HandleFunc("POST /"+dsa.EndpointDiskFileSystem, s.configFileSystems)
	mux.HandleFunc("GET /"+dsa.EndpointAWSS3, s.listAWS)
	mux.HandleFunc("POST /"+dsa.EndpointAWSS3, s.configAWS)
	mux.HandleFunc("GET /"+dsa.EndpointMediaServers, s.listMediaServers)
	mux.HandleFunc("POST /"+dsa.EndpointMediaServers, s.addMediaServer)
	mux.HandleFunc("GET /"+dsa.EndpointListConsumers, s.listConsumers)
	mux.HandleFunc("GET /"+dsa.EndpointListConsumers+"/{name}", s.listConsumers)
	mux.HandleFunc("GET /"+dsa.EndpointMediaServers+"/{name}", s.getMediaServer)
	mux.HandleFunc("DELETE /"+dsa.EndpointMediaServers+"/{name}", s.deleteMediaServer)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())
		down := s.down[r.Method]
		s.mu.Unlock()
		if down {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	tb.Cleanup(s.Close)
	return s
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *Server) SetFileSystems(v ...dsa.FileSystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileSystems = v
}

func (s *Server) FileSystems() []dsa.FileSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dsa.FileSystem(nil), s.fileSystems...)
}

// SetInUse makes removing path fail with an in-use validation.
func (s *Server) SetInUse(path, job string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inUse[path] = job
}

func (s *Server) SetAWS(v *dsa.AWSConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aws = v
}

func (s *Server) AWS() *dsa.AWSConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aws
}

func (s *Server) AddMediaServer(v dsa.MediaServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaServers[v.ServerName] = v
}

func (s *Server) MediaServerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaServerNames()
}

// SetDown makes every request with method answer 503 without an envelope.
func (s *Server) SetDown(method string, down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down[method] = down
}

// Requests returns "METHOD uri" of every call received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns the number of calls received with method.
func (s *Server) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if len(r) > len(method) && r[:len(method)+1] == method+" " {
			n++
		}
	}
	return n
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Server) listFileSystems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.fileSystems
	if items == nil {
		items = []dsa.FileSystem{}
	}
	reply(w, http.StatusOK, envelope{
		"status":      dsa.StatusListDiskFileSystemsSuccessful,
		"valid":       true,
		"fileSystems": items,
	})
}

func (s *Server) configFileSystems(w http.ResponseWriter, r *http.Request) {
	var list dsa.FileSystemList
	if !decode(w, r, &list) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := map[string]bool{}
	for _, fs := range list.FileSystems {
		kept[fs.FileSystemPath] = true
	}
	var errs []map[string]string
	for _, fs := range s.fileSystems {
		if job, ok := s.inUse[fs.FileSystemPath]; ok && !kept[fs.FileSystemPath] {
			errs = append(errs, map[string]string{
				"code":      "DSA_DFS_IN_USE",
				"message":   fmt.Sprintf("File system %s is in use by job %s", fs.FileSystemPath, job),
				"valStatus": "ERROR",
			})
		}
	}
	if len(errs) > 0 {
		reply(w, http.StatusOK, envelope{
			"status":         "CONFIG_DISK_FILE_SYSTEM_FAILED",
			"valid":          false,
			"validationlist": envelope{"serverValidationList": errs},
		})
		return
	}
	s.fileSystems = list.FileSystems
	reply(w, http.StatusOK, envelope{
		"status": dsa.StatusConfigDiskFileSystemSuccessful,
		"valid":  true,
	})
}

func (s *Server) listAWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aws == nil {
		reply(w, http.StatusOK, envelope{
			"status":         "LIST_AWS_APP_FAILED",
			"valid":          true,
			"foundComponent": false,
		})
		return
	}
	reply(w, http.StatusOK, envelope{
		"status":         dsa.StatusListAWSAppSuccessful,
		"valid":          true,
		"foundComponent": true,
		"aws":            []dsa.AWSApp{{ConfigAwsRest: *s.aws}},
	})
}

func (s *Server) configAWS(w http.ResponseWriter, r *http.Request) {
	var app dsa.AWSApp
	if !decode(w, r, &app) {
		return
	}
	if app.ConfigAwsRest.AccessKey == "" {
		reply(w, http.StatusBadRequest, envelope{
			"status": "CONFIG_AWS_APP_FAILED",
			"valid":  false,
			"validationlist": envelope{"clientValidationList": []map[string]string{
				{"code": "DSA_AWS_KEY", "message": "accessKey must not be empty"},
			}},
		})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := app.ConfigAwsRest
	s.aws = &cfg
	reply(w, http.StatusOK, envelope{
		"status": "CONFIG_AWS_APP_SUCCESSFUL",
		"valid":  true,
	})
}

func (s *Server) listMediaServers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	servers := make([]dsa.MediaServer, 0, len(s.mediaServers))
	for _, name := range s.mediaServerNames() {
		servers = append(servers, s.mediaServers[name])
	}
	reply(w, http.StatusOK, envelope{
		"status":       "LIST_MEDIA_SERVERS_SUCCESSFUL",
		"valid":        true,
		"mediaServers": servers,
	})
}

func (s *Server) getMediaServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	server, ok := s.mediaServers[name]
	if !ok {
		reply(w, http.StatusNotFound, envelope{
			"status":         "GET_MEDIA_SERVER_FAILED",
			"valid":          false,
			"foundComponent": false,
			"validationlist": envelope{"serverValidationList": []map[string]string{
				{"code": "DSA_MS_NOT_FOUND", "message": "Media server " + name + " does not exist"},
			}},
		})
		return
	}
	reply(w, http.StatusOK, envelope{
		"status":         "GET_MEDIA_SERVER_SUCCESSFUL",
		"valid":          true,
		"foundComponent": true,
		"mediaServer":    server,
	})
}

func (s *Server) addMediaServer(w http.ResponseWriter, r *http.Request) {
	var server dsa.MediaServer
	if !decode(w, r, &server) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mediaServers[server.ServerName]; ok {
		reply(w, http.StatusOK, envelope{
			"status": "ADD_MEDIA_SERVER_FAILED",
			"valid":  false,
			"validationlist": envelope{"serverValidationList": []map[string]string{
				{"code": "DSA_MS_EXISTS", "message": "Media server " + server.ServerName + " already exists"},
			}},
		})
		return
	}
	s.mediaServers[server.ServerName] = server
	reply(w, http.StatusOK, envelope{
		"status": "ADD_MEDIA_SERVER_SUCCESSFUL",
		"valid":  true,
	})
}

func (s *Server) deleteMediaServer(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mediaServers[name]; !ok {
		reply(w, http.StatusOK, envelope{
			"status":         "DELETE_MEDIA_SERVER_FAILED",
			"valid":          false,
			"foundComponent": false,
		})
		return
	}
	delete(s.mediaServers, name)
	reply(w, http.StatusOK, envelope{
		"status":  "DELETE_MEDIA_SERVER_SUCCESSFUL",
		"valid":   true,
		"virtual": r.URL.Query().Get("virtual") == "true",
	})
}

func (s *Server) listConsumers(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, envelope{
		"status":    "LIST_CONSUMERS_SUCCESSFUL",
		"valid":     true,
		"server":    r.PathValue("name"),
		"consumers": []string{},
	})
}

func (s *Server) mediaServerNames() []string {
	names := make([]string, 0, len(s.mediaServers))
	for name := range s.mediaServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
