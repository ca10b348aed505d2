package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/dmitrymomot/lambdakit/core/cookie"
	"github.com/dmitrymomot/lambdakit/core/logger"
)

const (
	tokenBytes     = 32
	tokenSeparator = ":"
)

// Manager creates, validates and removes session records in a Store.
// It is safe for concurrent use.
type Manager struct {
	store          Store
	key            []byte
	ttl            time.Duration
	sliding        bool
	cookieName     string
	csrfCookieName string
	cookies        *cookie.Manager
	now            func() time.Time
	logger         *slog.Logger
}

// NewManager creates a Manager. The secret keys the partition key hash; secrets
// longer than 64 bytes are compressed with BLAKE2b-512 first.
func NewManager(store Store, secret []byte, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	key := secret
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}

	m := &Manager{
		store:          store,
		key:            append([]byte(nil), key...),
		ttl:            24 * time.Hour,
		sliding:        true,
		cookieName:     DefaultCookieName,
		csrfCookieName: DefaultCSRFCookieName,
		cookies:        cookie.New(cookie.WithSecure(true)),
		now:            time.Now,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewFromConfig creates a Manager from cfg. Extra opts are applied last.
func NewFromConfig(store Store, cfg Config, opts ...Option) (*Manager, error) {
	base := []Option{
		WithTTL(cfg.TTL),
		WithSlidingExpiration(cfg.Sliding),
		WithCookieNames(cfg.CookieName, cfg.CSRFCookieName),
	}
	return NewManager(store, []byte(cfg.Secret), append(base, opts...)...)
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// CSRFCookieName returns the CSRF cookie name.
func (m *Manager) CSRFCookieName() string {
	return m.csrfCookieName
}

// PartitionKey returns the hex BLAKE2b-256 of sessionKey keyed with the server secret.
func (m *Manager) PartitionKey(sessionKey string) string {
	h, err := blake2b.New256(m.key)
	if err != nil {
		// Unreachable: the key length is bounded in NewManager.
		panic(err)
	}
	h.Write([]byte(sessionKey))
	return hex.EncodeToString(h.Sum(nil))
}

// Create stores a new session for sessionKey. A non-positive ttl uses the
// manager default.
func (m *Manager) Create(ctx context.Context, sessionKey string, data map[string]any, ttl time.Duration) (*Record, error) {
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	sk, err := randomToken()
	if err != nil {
		return nil, err
	}
	csrf, err := randomToken()
	if err != nil {
		return nil, err
	}

	pk := m.PartitionKey(sessionKey)
	now := m.now().Unix()
	ttlSeconds := max(int64(ttl/time.Second), 1)
	rec := &Record{
		PartitionKey:   pk,
		SortKey:        sk,
		SessionToken:   pk + tokenSeparator + sk,
		CSRFToken:      csrf,
		SessionKey:     sessionKey,
		Data:           maps.Clone(data),
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now + ttlSeconds,
		TTLInSeconds:   ttlSeconds,
	}

	if err := m.store.Put(ctx, rec); err != nil {
		return nil, errors.Join(ErrSaveSession, err)
	}

	m.logger.DebugContext(ctx, "session created",
		logger.Component("session"),
		logger.PartitionKey(pk),
	)
	return rec, nil
}

// Fetch loads the session identified by token and validates it. CSRF is checked
// unless skipCSRF is set. With sliding expiration the refreshed record is
// persisted before it is returned.
func (m *Manager) Fetch(ctx context.Context, token, csrf string, skipCSRF bool) (*Record, error) {
	pk, sk, ok := SplitToken(token)
	if !ok {
		return nil, ErrTokensInvalid
	}

	rec, err := m.store.Get(ctx, pk, sk)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !m.IsValid(rec, token, csrf, skipCSRF) {
		m.logger.DebugContext(ctx, "session rejected",
			logger.Component("session"),
			logger.PartitionKey(pk),
		)
		return nil, ErrInvalid
	}

	if m.sliding {
		m.touch(rec)
		if err := m.store.Put(ctx, rec); err != nil {
			return nil, errors.Join(ErrSaveSession, err)
		}
	}
	return rec, nil
}

// IsValid reports whether rec is present, complete, unexpired and matches token
// (and csrf unless skipCSRF). Token comparisons run in constant time.
func (m *Manager) IsValid(rec *Record, token, csrf string, skipCSRF bool) bool {
	if rec == nil || !rec.IsComplete() {
		return false
	}
	if rec.IsExpired(m.now()) {
		return false
	}

	tokenOK := subtle.ConstantTimeCompare([]byte(rec.SessionToken), []byte(token)) == 1
	csrfOK := skipCSRF || subtle.ConstantTimeCompare([]byte(rec.CSRFToken), []byte(csrf)) == 1
	return tokenOK && csrfOK
}

// UpdateData replaces the session payload, refreshes the access time and persists.
func (m *Manager) UpdateData(ctx context.Context, rec *Record, data map[string]any) error {
	if rec == nil {
		return ErrNilRecord
	}
	rec.Data = maps.Clone(data)
	m.touch(rec)

	if err := m.store.Put(ctx, rec); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	return nil
}

// Regenerate replaces rec with a fresh session carrying the same key, data and
// lifetime. The old record is deleted first.
func (m *Manager) Regenerate(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if err := m.store.Delete(ctx, rec.PartitionKey, rec.SortKey); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, errors.Join(ErrDeleteSession, err)
	}
	return m.Create(ctx, rec.SessionKey, rec.Data, rec.TTL())
}

// End deletes the single session. A missing record yields ErrNotFound.
func (m *Manager) End(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := m.store.Delete(ctx, rec.PartitionKey, rec.SortKey); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Join(ErrDeleteSession, err)
	}

	m.logger.DebugContext(ctx, "session ended",
		logger.Component("session"),
		logger.PartitionKey(rec.PartitionKey),
	)
	return nil
}

// EndAll deletes every session in rec's partition, following query cursors
// until the partition is exhausted.
func (m *Manager) EndAll(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}

	deleted := 0
	cursor := ""
	for {
		page, next, err := m.store.QueryByPartition(ctx, rec.PartitionKey, cursor)
		if err != nil {
			return err
		}
		for _, r := range page {
			err := m.store.Delete(ctx, r.PartitionKey, r.SortKey)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return errors.Join(ErrDeleteSession, err)
			}
			deleted++
		}
		if next == "" {
			break
		}
		cursor = next
	}

	m.logger.DebugContext(ctx, "all sessions ended",
		logger.Component("session"),
		logger.PartitionKey(rec.PartitionKey),
		logger.Count("deleted", deleted),
	)
	return nil
}

func (m *Manager) touch(rec *Record) {
	now := m.now().Unix()
	rec.LastAccessedAt = now
	if m.sliding {
		rec.ExpiresAt = now + rec.TTLInSeconds
	}
}

// SplitToken splits a session token into its partition and sort keys. It
// reports false unless the token has exactly two non-empty segments.
func SplitToken(token string) (pk, sk string, ok bool) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
