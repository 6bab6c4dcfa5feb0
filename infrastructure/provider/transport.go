package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/momah-portal/embedgen/internal/database"
	"gorm.io/gorm/clause"
)

// credentialParams are query parameters stripped from the URL before it
// is hashed, so rotating an API key keeps cached responses valid and the
// key never reaches the cache.
var credentialParams = []string{"key", "api_key"}

// cacheEntry is one cached response row.
type cacheEntry struct {
	Key        string `gorm:"column:key;primaryKey"`
	StatusCode int    `gorm:"column:status_code"`
	Header     []byte `gorm:"column:header"`
	Body       []byte `gorm:"column:body"`
	CreatedAt  time.Time
}

// TableName implements gorm's Tabler.
func (cacheEntry) TableName() string { return "http_cache" }

// CachingTransport is an http.RoundTripper that caches POST responses in
// a SQLite file, keyed by the SHA-256 of method, URL, and body. Only 2xx
// responses are cached. Cache failures fall through to the inner transport.
type CachingTransport struct {
	inner http.RoundTripper
	db    database.Database
}

// NewCachingTransport opens (or creates) the cache under dir. If inner is
// nil, http.DefaultTransport is used.
func NewCachingTransport(dir string, inner http.RoundTripper) (*CachingTransport, error) {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := database.NewDatabase(context.Background(), "sqlite:///"+filepath.Join(dir, "http_cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.GORM().AutoMigrate(&cacheEntry{}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return &CachingTransport{inner: inner, db: db}, nil
}

// Close closes the cache database.
func (t *CachingTransport) Close() error {
	return t.db.Close()
}

// RoundTrip implements http.RoundTripper.
func (t *CachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost {
		return t.inner.RoundTrip(req)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	key := cacheKey(req.Method, req.URL.String(), body)

	if resp, ok := t.read(req, key); ok {
		return resp, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()

	t.write(req.Context(), key, resp.StatusCode, resp.Header, respBody)

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

func (t *CachingTransport) read(req *http.Request, key string) (*http.Response, bool) {
	var entry cacheEntry
	err := t.db.Session(req.Context()).Where("`key` = ?", key).Limit(1).Find(&entry).Error
	if err != nil || entry.Key == "" {
		return nil, false
	}

	var header http.Header
	if err := json.Unmarshal(entry.Header, &header); err != nil {
		return nil, false
	}

	return &http.Response{
		StatusCode:    entry.StatusCode,
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}, true
}

func (t *CachingTransport) write(ctx context.Context, key string, statusCode int, header http.Header, body []byte) {
	encoded, err := json.Marshal(header)
	if err != nil {
		return
	}
	entry := cacheEntry{Key: key, StatusCode: statusCode, Header: encoded, Body: body}
	_ = t.db.Session(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry).Error
}

// cacheKey hashes the request identity with credentials removed from the URL.
func cacheKey(method, rawURL string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte("\n"))
	h.Write([]byte(stripCredentials(rawURL)))
	h.Write([]byte("\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func stripCredentials(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, p := range credentialParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
