package dsa_test

import (
	"testing"

	"github.com/foomo/barctl/pkg/dsa"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestItemsKeepUnknownAttributes(t *testing.T) {
	const in = `{"region":"eu-west-1","zone":"a","buckets":[
		{"bucketName":"b1","encrypted":true,"prefixList":[{"prefixName":"p","storageDevices":2,"tier":"cold"}]}]}`

	var region dsa.Region
	require.NoError(t, json.Unmarshal([]byte(in), &region))
	assert.Equal(t, "eu-west-1", region.Region)
	require.Len(t, region.Buckets, 1)
	assert.Equal(t, "b1", region.Buckets[0].BucketName)
	assert.Equal(t, 2, region.Buckets[0].PrefixList[0].StorageDevices)

	out, err := json.Marshal(region)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestItemsModelledFieldsWin(t *testing.T) {
	var fs dsa.FileSystem
	require.NoError(t, json.Unmarshal([]byte(`{"fileSystemPath":"/a","maxFiles":1,"inUse":true}`), &fs))
	fs.MaxFiles = 9

	out, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fileSystemPath":"/a","maxFiles":9,"inUse":true}`, string(out))

	var plain dsa.FileSystem
	require.NoError(t, json.Unmarshal([]byte(`{"fileSystemPath":"/b","maxFiles":2}`), &plain))
	assert.Nil(t, plain.Extra)
}
