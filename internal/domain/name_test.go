package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewName_AddsTrailingDot(t *testing.T) {
	assert.Equal(t, "example.com.", NewName("example.com").String())
	assert.Equal(t, "example.com.", NewName("example.com.").String())
	assert.Equal(t, ".", NewName("").String())
	assert.Equal(t, ".", NewName(".").String())
}

func TestName_Equal_IsCaseInsensitive(t *testing.T) {
	assert.True(t, NewName("Example.COM").Equal(NewName("example.com")))
	assert.False(t, NewName("example.com").Equal(NewName("example.org")))
}

func TestName_IsSubdomainOf(t *testing.T) {
	zone := NewName("example.com")
	assert.True(t, NewName("www.example.com").IsSubdomainOf(zone))
	assert.True(t, NewName("example.com").IsSubdomainOf(zone))
	assert.False(t, NewName("example.org").IsSubdomainOf(zone))
	assert.False(t, NewName("notexample.com").IsSubdomainOf(zone))
}

func TestName_Relativize(t *testing.T) {
	origin := NewName("example.com")

	rel, ok := NewName("www.example.com").Relativize(origin)
	assert.True(t, ok)
	assert.Equal(t, "www", rel)

	rel, ok = NewName("example.com").Relativize(origin)
	assert.True(t, ok)
	assert.Equal(t, "@", rel)

	_, ok = NewName("example.org").Relativize(origin)
	assert.False(t, ok)
}

func TestConcat(t *testing.T) {
	origin := NewName("example.com")
	assert.True(t, Concat("www", origin).Equal(NewName("www.example.com")))
	assert.True(t, Concat("@", origin).Equal(origin))
	assert.True(t, Concat("*", origin).Equal(NewName("*.example.com")))
}

func TestName_Labels(t *testing.T) {
	assert.Equal(t, []string{"www", "example", "com"}, NewName("www.example.com").Labels())
	assert.Nil(t, NewName(".").Labels())
}
