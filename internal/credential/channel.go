// Package credential persists session tokens on the client side across a set
// of storage channels with different durability, and reconciles them on read.
package credential

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// Channel is a single storage location for the session token. Implementations
// must treat an absent token as a normal empty read, not an error.
type Channel interface {
	// Name identifies the channel in logs.
	Name() string

	// Read returns the stored token, or "" when none is stored.
	Read() (string, error)

	// Write stores the token, replacing any previous value.
	Write(token string) error

	// Clear removes the stored token. Clearing an empty channel is a no-op.
	Clear() error
}

// fileRecord is the on-disk format for the durable channel.
type fileRecord struct {
	Token    string    `json:"token"`
	StoredAt time.Time `json:"stored_at"`
}

// FileChannel stores the token in a JSON file. This is the durable channel:
// it survives process restarts.
type FileChannel struct {
	path string
	mu   sync.Mutex
}

// NewFileChannel creates a FileChannel at the given path.
func NewFileChannel(path string) *FileChannel {
	return &FileChannel{path: path}
}

// Name identifies the channel in logs.
func (f *FileChannel) Name() string {
	return "file"
}

// Read returns the stored token, or "" when the file does not exist.
func (f *FileChannel) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", apperrors.Wrap(err, "failed to read credential file")
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// A corrupt file reads as empty; the next write repairs it.
		return "", nil
	}
	return record.Token, nil
}

// Write stores the token. The file is created with owner-only permissions.
func (f *FileChannel) Write(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record := fileRecord{
		Token:    token,
		StoredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode credential record")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return apperrors.Wrap(err, "failed to create credential directory")
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to write credential file")
	}
	return nil
}

// Clear removes the credential file. A missing file is not an error.
func (f *FileChannel) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "failed to remove credential file")
	}
	return nil
}

// MemoryChannel stores the token in process memory. This is the session
// channel: it lives exactly as long as the process.
type MemoryChannel struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryChannel creates an empty MemoryChannel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

// Name identifies the channel in logs.
func (m *MemoryChannel) Name() string {
	return "memory"
}

// Read returns the stored token.
func (m *MemoryChannel) Read() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Write stores the token.
func (m *MemoryChannel) Write(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear removes the stored token.
func (m *MemoryChannel) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// CookieJarChannel stores the token as a cookie in an http.CookieJar, so an
// HTTP client sharing the jar presents the session cookie automatically.
type CookieJarChannel struct {
	jar        http.CookieJar
	serverURL  *url.URL
	cookieName string
}

// NewCookieJarChannel creates a CookieJarChannel for the given server URL.
func NewCookieJarChannel(jar http.CookieJar, serverURL *url.URL, cookieName string) *CookieJarChannel {
	return &CookieJarChannel{
		jar:        jar,
		serverURL:  serverURL,
		cookieName: cookieName,
	}
}

// Name identifies the channel in logs.
func (c *CookieJarChannel) Name() string {
	return "cookie"
}

// Read returns the token from the jar, or "" when no session cookie is set.
func (c *CookieJarChannel) Read() (string, error) {
	for _, cookie := range c.jar.Cookies(c.serverURL) {
		if cookie.Name == c.cookieName {
			return cookie.Value, nil
		}
	}
	return "", nil
}

// cookieLifetime bounds how long a jar cookie outlives the run that wrote it.
const cookieLifetime = 30 * 24 * time.Hour

// Write stores the token as a session cookie in the jar.
func (c *CookieJarChannel) Write(token string) error {
	c.jar.SetCookies(c.serverURL, []*http.Cookie{{
		Name:    c.cookieName,
		Value:   token,
		Path:    "/",
		Expires: time.Now().Add(cookieLifetime),
	}})
	return nil
}

// Clear expires the session cookie in the jar.
func (c *CookieJarChannel) Clear() error {
	c.jar.SetCookies(c.serverURL, []*http.Cookie{{
		Name:    c.cookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	}})
	return nil
}
