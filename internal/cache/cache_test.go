package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/kv"
	"github.com/lucat1/consulns/internal/kv/kvtest"
	"github.com/lucat1/consulns/internal/store"
)

func seedZone(t *testing.T, st *store.Store, name string, records ...domain.Record) *store.Zone {
	t.Helper()
	z, err := st.AddZone(domain.NewName(name))
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, z.Stage().AddRecord(r))
	}
	require.NoError(t, z.Commit())
	return z
}

func TestBuildCachedZone_LookupByOwner(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "example.com", domain.NewRecord("www", domain.TypeA, "1.2.3.4", 300))
	require.NoError(t, z.SetSerial(7))

	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	got := cz.Lookup(domain.QTypeA, domain.NewName("www.example.com"))
	require.Len(t, got, 1)
	assert.Equal(t, "1.2.3.4", got[0].Content)
	assert.Equal(t, uint32(300), got[0].TTL)
	assert.True(t, got[0].Auth)
}

func TestBuildCachedZone_SOASynthesis(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "example.com")
	require.NoError(t, z.SetSerial(7))

	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	soa := cz.Lookup(domain.QTypeSOA, domain.NewName("example.com"))
	require.Len(t, soa, 1)
	assert.Equal(t, domain.QTypeSOA, soa[0].QType)
	assert.Contains(t, soa[0].Content, "ns1.example.com root.example.com 7 ")
	assert.Equal(t, uint32(300), soa[0].TTL)
}

func TestBuildCachedZone_ANYOnApexYieldsSOAFirst(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "example.com", domain.NewRecord("@", domain.TypeNS, "ns1.example.com.", 300))

	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	got := cz.Lookup(domain.QTypeANY, domain.NewName("example.com"))
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, domain.QTypeSOA, got[0].QType)
}

func TestBuildCachedZone_WildcardFallback(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "example.com", domain.NewRecord("*", domain.TypeA, "9.9.9.9", 300))

	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	got := cz.Lookup(domain.QTypeA, domain.NewName("anything.example.com"))
	require.Len(t, got, 1)
	assert.Equal(t, "9.9.9.9", got[0].Content)
}

func TestBuildCachedZone_ExcludesConsulType(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "example.com", domain.NewRecord("x", domain.TypeConsul, "opaque", 300))

	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	got := cz.Lookup(domain.QTypeANY, domain.NewName("x.example.com"))
	assert.Empty(t, got)
	assert.Empty(t, cz.All()[1:])
}

func TestCache_ZoneByQName_LongestSuffixMatch(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	seedZone(t, st, "example.com")
	seedZone(t, st, "sub.example.com")

	c, err := Build(st)
	require.NoError(t, err)

	_, cz := c.ZoneByQName(domain.NewName("www.sub.example.com"), false)
	require.NotNil(t, cz)
	assert.True(t, cz.Zone().Equal(domain.NewName("sub.example.com")))
}

func TestCache_ZoneByQName_NoMatch(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	seedZone(t, st, "example.com")

	c, err := Build(st)
	require.NoError(t, err)

	id, cz := c.ZoneByQName(domain.NewName("example.org"), false)
	assert.Equal(t, -1, id)
	assert.Nil(t, cz)
}

func TestCachedZone_BeforeAndAfter_Cyclic(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	z := seedZone(t, st, "z.",
		domain.NewRecord("a", domain.TypeA, "1.1.1.1", 300),
		domain.NewRecord("b", domain.TypeA, "2.2.2.2", 300),
		domain.NewRecord("c", domain.TypeA, "3.3.3.3", 300),
	)
	cz, err := BuildCachedZone(z)
	require.NoError(t, err)

	before, after := cz.BeforeAndAfter("b")
	assert.Equal(t, "a", before)
	assert.Equal(t, "c", after)

	before, after = cz.BeforeAndAfter("a")
	assert.Equal(t, "c", before)
	assert.Equal(t, "b", after)
}

func TestCache_Reload_PicksUpNewZone(t *testing.T) {
	st := store.New(kv.NewWithBackend(kvtest.NewFake()))
	seedZone(t, st, "example.com")

	c, err := Build(st)
	require.NoError(t, err)
	assert.Len(t, c.Zones(), 1)

	seedZone(t, st, "other.com")
	require.NoError(t, c.Reload(st))
	assert.Len(t, c.Zones(), 2)
}
