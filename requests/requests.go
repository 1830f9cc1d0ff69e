package requests

import (
	"strings"

	"github.com/foomo/barctl/pkg/dsa"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DiskFileSystem arguments of the disk file system tool
type DiskFileSystem struct {
	Operation      string `json:"operation"`
	FileSystemPath string `json:"file_system_path,omitempty"`
	MaxFiles       *int   `json:"max_files,omitempty"`
}

// AWSS3 arguments of the AWS S3 backup configuration tool
type AWSS3 struct {
	Operation       string          `json:"operation"`
	AccessID        string          `json:"accessId,omitempty"`
	AccessKey       string          `json:"accessKey,omitempty"`
	BucketsByRegion BucketsByRegion `json:"bucketsByRegion,omitempty"`
	BucketName      string          `json:"bucketName,omitempty"`
	AcctName        string          `json:"acctName,omitempty"`
	// Verify checks every bucket against AWS before configuring DSA
	Verify bool `json:"verify,omitempty"`
}

// MediaServer arguments of the media server tool
type MediaServer struct {
	Operation  string `json:"operation"`
	ServerName string `json:"server_name,omitempty"`
	Port       int    `json:"port,omitempty"`
	// IPAddresses is either a JSON array or a string holding one,
	// e.g. [{"ipAddress": "192.168.1.100", "netmask": "255.255.255.0"}]
	IPAddresses     IPAddresses `json:"ip_addresses,omitempty"`
	PoolSharedPipes *int        `json:"pool_shared_pipes,omitempty"`
	Virtual         bool        `json:"virtual,omitempty"`
}

// BucketsByRegion accepts a single region object, a list of them, or a string
// containing either.
type BucketsByRegion []dsa.Region

func (b *BucketsByRegion) UnmarshalJSON(data []byte) error {
	data, err := unquote(data)
	if err != nil {
		return err
	}
	var regions dsa.OneOrMany[dsa.Region]
	if err := json.Unmarshal(data, &regions); err != nil {
		return errors.Wrap(err, "invalid bucketsByRegion")
	}
	*b = BucketsByRegion(regions)
	return nil
}

// ParseBucketsByRegion parses the JSON form used on the command line
func ParseBucketsByRegion(s string) (BucketsByRegion, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ret BucketsByRegion
	if err := ret.UnmarshalJSON([]byte(s)); err != nil {
		return nil, err
	}
	return ret, nil
}

// IPAddresses accepts a list of ip infos or a string containing one.
type IPAddresses []dsa.IPInfo

func (a *IPAddresses) UnmarshalJSON(data []byte) error {
	data, err := unquote(data)
	if err != nil {
		return err
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, `invalid ip addresses, expected JSON like [{"ipAddress": "IP", "netmask": "MASK"}]`)
	}
	ret := make(IPAddresses, 0, len(raw))
	for _, info := range raw {
		ip, hasIP := info["ipAddress"]
		mask, hasMask := info["netmask"]
		if !hasIP || !hasMask {
			return errors.New("each ip address must have 'ipAddress' and 'netmask' keys")
		}
		ret = append(ret, dsa.IPInfo{IPAddress: ip, Netmask: mask})
	}
	*a = ret
	return nil
}

// ParseIPAddresses parses the JSON form used on the command line
func ParseIPAddresses(s string) (IPAddresses, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ret IPAddresses
	if err := ret.UnmarshalJSON([]byte(s)); err != nil {
		return nil, err
	}
	return ret, nil
}

// unquote unwraps a JSON string holding JSON
func unquote(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != '"' {
		return data, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}
