package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucat1/consulns/internal/kv/kvtest"
)

type doc struct {
	Value string `json:"value"`
}

func TestGet_AbsentKeyIsNotAnError(t *testing.T) {
	s := NewWithBackend(kvtest.NewFake())
	idx, v, err := Get[doc](s, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, idx)
}

func TestPutThenGet_RoundTrips(t *testing.T) {
	s := NewWithBackend(kvtest.NewFake())
	require.NoError(t, Put(s, "k", doc{Value: "hello"}))

	_, v, err := Get[doc](s, "k")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "hello", v.Value)
}

func TestDial_InvalidScheme(t *testing.T) {
	_, err := Dial("ftp://localhost:8500")
	assert.Error(t, err)
}

func TestDial_DefaultsPort(t *testing.T) {
	s, err := Dial("http://localhost")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
