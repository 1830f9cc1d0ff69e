package dsa

import (
	"net/url"
	"strings"
)

const (
	EndpointDiskFileSystem = "dsa/components/backup-applications/disk-file-system"
	EndpointAWSS3          = "dsa/components/backup-applications/aws-s3"
	EndpointMediaServers   = "dsa/components/mediaservers"
	EndpointListConsumers  = "dsa/components/mediaservers/listconsumers"
)

// Status values DSA reports on success.
const (
	StatusListDiskFileSystemsSuccessful  = "LIST_DISK_FILE_SYSTEMS_SUCCESSFUL"
	StatusConfigDiskFileSystemSuccessful = "CONFIG_DISK_FILE_SYSTEM_SUCCESSFUL"
	StatusListAWSAppSuccessful           = "LIST_AWS_APP_SUCCESSFUL"
)

// MediaServerEndpoint addresses a single media server.
func MediaServerEndpoint(name string) string {
	return EndpointMediaServers + "/" + url.PathEscape(strings.TrimSpace(name))
}

// ConsumersEndpoint lists the consumers of a single media server.
func ConsumersEndpoint(name string) string {
	return EndpointListConsumers + "/" + url.PathEscape(strings.TrimSpace(name))
}
