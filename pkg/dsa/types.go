package dsa

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// Extra holds the attributes of a collection item that are not modelled here.
// They are written back unchanged whenever the collection is replaced.
type Extra map[string]jsoniter.RawMessage

type (
	FileSystem struct {
		FileSystemPath string `json:"fileSystemPath"`
		MaxFiles       int    `json:"maxFiles"`
		Extra          Extra  `json:"-"`
	}
	FileSystemList struct {
		FileSystems []FileSystem `json:"fileSystems"`
	}
)

type (
	AWSAppList struct {
		AWS OneOrMany[AWSApp] `json:"aws"`
	}
	AWSApp struct {
		ConfigAwsRest AWSConfig `json:"configAwsRest"`
	}
	AWSConfig struct {
		AccessID              string            `json:"accessId,omitempty"`
		AccessKey             string            `json:"accessKey,omitempty"`
		BucketsByRegion       OneOrMany[Region] `json:"bucketsByRegion"`
		BucketName            string            `json:"bucketName,omitempty"`
		AcctName              string            `json:"acctName,omitempty"`
		Viewpoint             bool              `json:"viewpoint"`
		ViewpointBucketRegion bool              `json:"viewpointBucketRegion"`
	}
	Region struct {
		Region  string            `json:"region"`
		Buckets OneOrMany[Bucket] `json:"buckets"`
		Extra   Extra             `json:"-"`
	}
	Bucket struct {
		BucketName string            `json:"bucketName"`
		PrefixList OneOrMany[Prefix] `json:"prefixList,omitempty"`
		Extra      Extra             `json:"-"`
	}
	Prefix struct {
		PrefixName     string `json:"prefixName"`
		StorageDevices int    `json:"storageDevices"`
		Extra          Extra  `json:"-"`
	}
)

type (
	MediaServer struct {
		ServerName      string   `json:"serverName"`
		Port            int      `json:"port"`
		IPInfo          []IPInfo `json:"ipInfo"`
		PoolSharedPipes int      `json:"poolSharedPipes,omitempty"`
	}
	IPInfo struct {
		IPAddress string `json:"ipAddress"`
		Netmask   string `json:"netmask"`
	}
)

// OneOrMany decodes either a single JSON object or an array of them.
// DSA collapses single element lists into objects in some answers.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case data[0] == '[':
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = list
		return nil
	default:
		var single T
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*o = OneOrMany[T]{single}
		return nil
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Extra attributes
// ------------------------------------------------------------------------------------------------

func (fs *FileSystem) UnmarshalJSON(data []byte) error {
	type plain FileSystem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, "fileSystemPath", "maxFiles")
	if err != nil {
		return err
	}
	p.Extra = extra
	*fs = FileSystem(p)
	return nil
}

func (fs FileSystem) MarshalJSON() ([]byte, error) {
	type plain FileSystem
	return joinExtra(plain(fs), fs.Extra)
}

func (r *Region) UnmarshalJSON(data []byte) error {
	type plain Region
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, "region", "buckets")
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = Region(p)
	return nil
}

func (r Region) MarshalJSON() ([]byte, error) {
	type plain Region
	return joinExtra(plain(r), r.Extra)
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	type plain Bucket
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, "bucketName", "prefixList")
	if err != nil {
		return err
	}
	p.Extra = extra
	*b = Bucket(p)
	return nil
}

func (b Bucket) MarshalJSON() ([]byte, error) {
	type plain Bucket
	return joinExtra(plain(b), b.Extra)
}

func (p *Prefix) UnmarshalJSON(data []byte) error {
	type plain Prefix
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, "prefixName", "storageDevices")
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Prefix(v)
	return nil
}

func (p Prefix) MarshalJSON() ([]byte, error) {
	type plain Prefix
	return joinExtra(plain(p), p.Extra)
}

// splitExtra returns the members of the JSON object data other than known.
func splitExtra(data []byte, known ...string) (Extra, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var all Extra
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// joinExtra encodes v and adds the members of extra it does not set itself.
func joinExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all Extra
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

func RegionKey(r Region) string          { return r.Region }
func BucketKey(b Bucket) string          { return b.BucketName }
func FileSystemKey(fs FileSystem) string { return fs.FileSystemPath }
