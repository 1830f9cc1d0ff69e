package bar_test

import (
	"net/http"
	"testing"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIPs = []dsa.IPInfo{{IPAddress: "192.168.1.100", Netmask: "255.255.255.0"}}

func TestListMediaServers(t *testing.T) {
	s, server := newService(t)
	server.AddMediaServer(dsa.MediaServer{ServerName: "ms1", Port: 15401, IPInfo: testIPs})

	res := s.ListMediaServers(t.Context())
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, `"serverName": "ms1"`)
	assert.Contains(t, res.Text, "\n  ")
}

func TestGetMediaServer(t *testing.T) {
	s, server := newService(t)
	server.AddMediaServer(dsa.MediaServer{ServerName: "ms1", Port: 15401, IPInfo: testIPs})

	res := s.GetMediaServer(t.Context(), "ms1")
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, "15401")
}

func TestGetMediaServerNotFound(t *testing.T) {
	s, server := newService(t)
	server.AddMediaServer(dsa.MediaServer{ServerName: "ms1", Port: 15401, IPInfo: testIPs})
	server.AddMediaServer(dsa.MediaServer{ServerName: "ms2", Port: 15402, IPInfo: testIPs})

	res := s.GetMediaServer(t.Context(), "ms9")
	assert.Equal(t, responses.OutcomeNotFound, res.Outcome)
	assert.Contains(t, res.Text, "'ms9' not found")
	assert.Contains(t, res.Text, "- ms1")
	assert.Contains(t, res.Text, "- ms2")
}

func TestAddMediaServer(t *testing.T) {
	s, server := newService(t)

	res := s.ManageMediaServer(t.Context(), &requests.MediaServer{
		Operation:   bar.OperationAdd,
		ServerName:  " ms1 ",
		Port:        15401,
		IPAddresses: testIPs,
	})
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Equal(t, []string{"ms1"}, server.MediaServerNames())

	res = s.AddMediaServer(t.Context(), dsa.MediaServer{ServerName: "ms1", Port: 15401, IPInfo: testIPs, PoolSharedPipes: 10})
	assert.Equal(t, responses.OutcomeValidationFailed, res.Outcome)
	assert.Contains(t, res.Text, "already exists")
}

func TestAddMediaServerValidation(t *testing.T) {
	s, server := newService(t)

	tests := []struct {
		name   string
		server dsa.MediaServer
		want   string
	}{
		{"empty name", dsa.MediaServer{ServerName: "  ", Port: 1, IPInfo: testIPs, PoolSharedPipes: 50}, "server name"},
		{"port too large", dsa.MediaServer{ServerName: "ms", Port: 70000, IPInfo: testIPs, PoolSharedPipes: 50}, "port"},
		{"no ips", dsa.MediaServer{ServerName: "ms", Port: 1, PoolSharedPipes: 50}, "IP address"},
		{"missing netmask", dsa.MediaServer{ServerName: "ms", Port: 1, IPInfo: []dsa.IPInfo{{IPAddress: "10.0.0.1"}}, PoolSharedPipes: 50}, "netmask"},
		{"pipes", dsa.MediaServer{ServerName: "ms", Port: 1, IPInfo: testIPs, PoolSharedPipes: 100}, "pool_shared_pipes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.AddMediaServer(t.Context(), tt.server)
			assert.Equal(t, responses.OutcomeInvalidInput, res.Outcome)
			assert.Contains(t, res.Text, tt.want)
		})
	}
	assert.Empty(t, server.Requests())
}

func TestDeleteMediaServer(t *testing.T) {
	s, server := newService(t)
	server.AddMediaServer(dsa.MediaServer{ServerName: "ms1", Port: 15401, IPInfo: testIPs})

	res := s.ManageMediaServer(t.Context(), &requests.MediaServer{
		Operation:  bar.OperationDelete,
		ServerName: "ms1",
		Virtual:    true,
	})
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Empty(t, server.MediaServerNames())
	assert.Contains(t, server.Requests(), http.MethodDelete+" /"+dsa.EndpointMediaServers+"/ms1?virtual=true")

	res = s.DeleteMediaServer(t.Context(), "ms1", false)
	assert.Equal(t, responses.OutcomeValidationFailed, res.Outcome)
}

func TestListMediaServerConsumers(t *testing.T) {
	s, server := newService(t)

	res := s.ListMediaServerConsumers(t.Context())
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)

	res = s.ManageMediaServer(t.Context(), &requests.MediaServer{
		Operation:  bar.OperationListConsumersByServer,
		ServerName: "ms1",
	})
	require.Equal(t, responses.OutcomeSuccess, res.Outcome, res.Text)
	assert.Contains(t, res.Text, `"server": "ms1"`)
	assert.Contains(t, server.Requests(), http.MethodGet+" /"+dsa.EndpointListConsumers+"/ms1")
}

func TestMediaServerTransportError(t *testing.T) {
	s, server := newService(t)
	server.SetDown(http.MethodGet, true)

	res := s.ListMediaServers(t.Context())
	assert.Equal(t, responses.OutcomeTransportError, res.Outcome)
	assert.Contains(t, res.Text, "503")
}
