package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Initialize(t *testing.T) {
	q, err := Decode([]byte(`{"method":"initialize","parameters":{"path":"/tmp/x"}}`))
	require.NoError(t, err)
	assert.Equal(t, MethodInitialize, q.Method)
	p, ok := q.Params.(InitializeParams)
	require.True(t, ok)
	assert.Equal(t, "/tmp/x", p.Path)
}

func TestDecode_Lookup_ZoneIDDefaultsAbsent(t *testing.T) {
	q, err := Decode([]byte(`{"method":"lookup","parameters":{"qname":"www.example.com","qtype":"A","zone-id":-1}}`))
	require.NoError(t, err)
	p, ok := q.Params.(LookupParams)
	require.True(t, ok)
	assert.Equal(t, "www.example.com", p.QName)
	_, has := p.HasZoneID()
	assert.False(t, has)
}

func TestDecode_Lookup_ZoneIDPinned(t *testing.T) {
	q, err := Decode([]byte(`{"method":"lookup","parameters":{"qname":"www.example.com","qtype":"A","zone-id":3}}`))
	require.NoError(t, err)
	p := q.Params.(LookupParams)
	id, has := p.HasZoneID()
	assert.True(t, has)
	assert.Equal(t, 3, id)
}

func TestDecode_UnknownMethod(t *testing.T) {
	_, err := Decode([]byte(`{"method":"bogus","parameters":{}}`))
	assert.Error(t, err)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_StartTransaction(t *testing.T) {
	q, err := Decode([]byte(`{"method":"startTransaction","parameters":{"domain_id":1}}`))
	require.NoError(t, err)
	assert.Equal(t, MethodStartTransaction, q.Method)
}

func TestEncode_SingleLineNoTrailingWhitespace(t *testing.T) {
	data, err := Encode(Ok(true))
	require.NoError(t, err)
	assert.Equal(t, "{\"result\":true}\n", string(data))
}

func TestEncode_Fail(t *testing.T) {
	data, err := Encode(Fail())
	require.NoError(t, err)
	assert.Equal(t, "{\"result\":false}\n", string(data))
}
