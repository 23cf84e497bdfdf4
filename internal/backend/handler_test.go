package backend

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucat1/consulns/internal/cache"
	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
	"github.com/lucat1/consulns/internal/kv/kvtest"
	"github.com/lucat1/consulns/internal/protocol"
	"github.com/lucat1/consulns/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	c, err := cache.Build(st)
	require.NoError(t, err)
	return NewHandler(st, c, nil), st
}

func TestDispatch_Initialize(t *testing.T) {
	h, _ := newTestHandler(t)
	q, err := protocol.Decode([]byte(`{"method":"initialize","parameters":{"path":"/tmp/x"}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)
	assert.Equal(t, true, resp.Result)
}

func TestDispatch_GetAllDomains_Empty(t *testing.T) {
	h, _ := newTestHandler(t)
	q, err := protocol.Decode([]byte(`{"method":"getAllDomains","parameters":{"include_disabled":true}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)
	domains, ok := resp.Result.([]domain.DomainInfo)
	require.True(t, ok)
	assert.Empty(t, domains)
}

func TestDispatch_Lookup_AddCommitLookup(t *testing.T) {
	h, st := newTestHandler(t)
	z, err := st.AddZone(domain.NewName("example.com"))
	require.NoError(t, err)
	require.NoError(t, z.Stage().AddRecord(domain.NewRecord("www", domain.TypeA, "1.2.3.4", 300)))
	require.NoError(t, z.Commit())
	require.NoError(t, h.Cache.Reload(st))

	q, err := protocol.Decode([]byte(`{"method":"lookup","parameters":{"qname":"www.example.com","qtype":"A","zone-id":-1}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)

	records, ok := resp.Result.([]domain.RecordInfo)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "1.2.3.4", records[0].Content)
	assert.Equal(t, "www.example.com", records[0].QName)
	assert.True(t, records[0].Auth)
}

func TestDispatch_Lookup_SOASerial(t *testing.T) {
	h, st := newTestHandler(t)
	z, err := st.AddZone(domain.NewName("example.com"))
	require.NoError(t, err)
	require.NoError(t, z.SetSerial(7))
	require.NoError(t, h.Cache.Reload(st))

	q, err := protocol.Decode([]byte(`{"method":"lookup","parameters":{"qname":"example.com","qtype":"SOA","zone-id":-1}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)

	records := resp.Result.([]domain.RecordInfo)
	require.Len(t, records, 1)
	assert.Equal(t, domain.QTypeSOA, records[0].QType)
	assert.Contains(t, records[0].Content, "ns1.example.com root.example.com 7 ")
	assert.Equal(t, uint32(300), records[0].TTL)
}

func TestDispatch_Lookup_Wildcard(t *testing.T) {
	h, st := newTestHandler(t)
	z, err := st.AddZone(domain.NewName("example.com"))
	require.NoError(t, err)
	require.NoError(t, z.Stage().AddRecord(domain.NewRecord("*", domain.TypeA, "9.9.9.9", 300)))
	require.NoError(t, z.Commit())
	require.NoError(t, h.Cache.Reload(st))

	q, err := protocol.Decode([]byte(`{"method":"lookup","parameters":{"qname":"anything.example.com","qtype":"A","zone-id":-1}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)

	records := resp.Result.([]domain.RecordInfo)
	require.Len(t, records, 1)
	assert.Equal(t, "9.9.9.9", records[0].Content)
}

func TestDispatch_GetDomainMetadata_RoundTrip(t *testing.T) {
	h, st := newTestHandler(t)
	_, err := st.AddZone(domain.NewName("example.com"))
	require.NoError(t, err)

	setQ, err := protocol.Decode([]byte(`{"method":"setDomainMetadata","parameters":{"name":"example.com","kind":"PRESIGNED","value":["1"]}}`))
	require.NoError(t, err)
	setResp := h.Dispatch(testLogger(), setQ)
	assert.Equal(t, true, setResp.Result)

	getQ, err := protocol.Decode([]byte(`{"method":"getDomainMetadata","parameters":{"name":"example.com","kind":"PRESIGNED"}}`))
	require.NoError(t, err)
	getResp := h.Dispatch(testLogger(), getQ)
	assert.Equal(t, []string{"1"}, getResp.Result)
}

func TestDispatch_AddAndRemoveDomainKey(t *testing.T) {
	h, st := newTestHandler(t)
	_, err := st.AddZone(domain.NewName("example.com"))
	require.NoError(t, err)

	addQ, err := protocol.Decode([]byte(`{"method":"addDomainKey","parameters":{"name":"example.com","key":{"flags":257,"active":true,"published":true,"content":"k1"}}}`))
	require.NoError(t, err)
	addResp := h.Dispatch(testLogger(), addQ)
	id, ok := addResp.Result.(int)
	require.True(t, ok)
	assert.Equal(t, 1, id)

	removeQ, err := protocol.Decode([]byte(`{"method":"removeDomainKey","parameters":{"name":"example.com","id":1}}`))
	require.NoError(t, err)
	removeResp := h.Dispatch(testLogger(), removeQ)
	assert.Equal(t, true, removeResp.Result)
}

func TestDispatch_MalformedLine_IsRejectedByDecode(t *testing.T) {
	h, _ := newTestHandler(t)
	_, err := protocol.Decode([]byte(`not json`))
	assert.Error(t, err)
	// direct server-level malformed-line handling is exercised in server_test.go;
	// Dispatch itself is only ever called with a successfully decoded Query.
	_ = h
}

func TestDispatch_Transaction_AlwaysAcknowledged(t *testing.T) {
	h, _ := newTestHandler(t)
	q, err := protocol.Decode([]byte(`{"method":"startTransaction","parameters":{}}`))
	require.NoError(t, err)
	resp := h.Dispatch(testLogger(), q)
	assert.Equal(t, true, resp.Result)
}
