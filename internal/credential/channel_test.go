package credential

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileChannel(t *testing.T) {
	t.Run("reads empty when file does not exist", func(t *testing.T) {
		channel := NewFileChannel(filepath.Join(t.TempDir(), "credentials.json"))

		token, err := channel.Read()

		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("round-trips a token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		channel := NewFileChannel(path)

		require.NoError(t, channel.Write("session-token"))

		token, err := channel.Read()
		require.NoError(t, err)
		assert.Equal(t, "session-token", token)
	})

	t.Run("creates parent directories with owner-only permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "credentials.json")
		channel := NewFileChannel(path)

		require.NoError(t, channel.Write("session-token"))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("reads corrupt file as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
		channel := NewFileChannel(path)

		token, err := channel.Read()

		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("clear removes the file and is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		channel := NewFileChannel(path)
		require.NoError(t, channel.Write("session-token"))

		require.NoError(t, channel.Clear())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, channel.Clear())
	})
}

func TestMemoryChannel(t *testing.T) {
	channel := NewMemoryChannel()

	token, err := channel.Read()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, channel.Write("session-token"))
	token, err = channel.Read()
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)

	require.NoError(t, channel.Clear())
	token, err = channel.Read()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCookieJarChannel(t *testing.T) {
	serverURL, err := url.Parse("https://api.example.com")
	require.NoError(t, err)

	newChannel := func(t *testing.T) *CookieJarChannel {
		t.Helper()
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return NewCookieJarChannel(jar, serverURL, "session_token")
	}

	t.Run("reads empty when no cookie is set", func(t *testing.T) {
		channel := newChannel(t)

		token, err := channel.Read()

		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("round-trips a token", func(t *testing.T) {
		channel := newChannel(t)

		require.NoError(t, channel.Write("session-token"))

		token, err := channel.Read()
		require.NoError(t, err)
		assert.Equal(t, "session-token", token)
	})

	t.Run("ignores unrelated cookies", func(t *testing.T) {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		jar.SetCookies(serverURL, []*http.Cookie{{Name: "other", Value: "value", Path: "/"}})
		channel := NewCookieJarChannel(jar, serverURL, "session_token")

		token, err := channel.Read()

		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("clear expires the cookie", func(t *testing.T) {
		channel := newChannel(t)
		require.NoError(t, channel.Write("session-token"))

		require.NoError(t, channel.Clear())

		token, err := channel.Read()
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}
