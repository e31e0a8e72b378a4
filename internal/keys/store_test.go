package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestOrigin(t *testing.T) {
	cases := map[string]string{
		"https://Forum.example/":         "https://forum.example",
		"https://forum.example/api":      "https://forum.example",
		"http://127.0.0.1:8080/sub/path": "http://127.0.0.1:8080",
		"not a url/":                     "not a url",
	}
	for in, want := range cases {
		assert.Equal(t, want, Origin(in), in)
	}
}

func testStore(t *testing.T, store TokenStore) {
	t.Helper()
	_, err := store.Get("https://forum.example")
	require.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Put("https://forum.example/", "tok"))
	got, err := store.Get("https://forum.example/api")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	_, err = store.Get("https://other.example")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Delete("https://forum.example"))
	_, err = store.Get("https://forum.example")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.NoError(t, store.Delete("https://forum.example"), "deleting twice is fine")
}

func TestMemStore(t *testing.T) {
	testStore(t, &MemStore{})
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	testStore(t, &KeyringStore{})
	assert.True(t, KeyringAvailable())
}
