// Package cookie stores short-lived values in AES-GCM encrypted cookies.
//
// Its main use is flash state: a value written while handling one request
// and consumed by the next one.
package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrDecrypt   = errors.New("cookie: decryption failed")
	ErrEncode    = errors.New("cookie: failed to encode value")
	ErrTooLarge  = errors.New("cookie: encoded cookie exceeds browser limit")
)

const (
	flashPrefix = "flash_"

	// MaxSize is the largest Set-Cookie value (name, value and attributes)
	// browsers are required to keep.
	MaxSize = 4096
)

// Manager writes and reads encrypted cookies. It is immutable after New
// and safe for concurrent use.
type Manager struct {
	aead     cipher.AEAD
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// Option configures the Manager.
type Option func(*Manager)

// WithPath sets the cookie path. Default: "/".
func WithPath(path string) Option {
	return func(m *Manager) { m.path = path }
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) { m.domain = domain }
}

// WithSecure marks cookies Secure (HTTPS only).
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithSameSite sets the SameSite attribute. Default: Lax.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) { m.sameSite = ss }
}

// New derives an AES-256 key from secret, which must be at least 32 bytes.
func New(secret string, opts ...Option) (*Manager, error) {
	if len(secret) < 32 {
		return nil, ErrBadSecret
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		aead:     aead,
		path:     "/",
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// SetEncrypted writes value encrypted under name. maxAge follows
// http.Cookie semantics: zero means a session cookie. Nothing is written
// and ErrTooLarge is returned when the cookie would exceed MaxSize.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, maxAge int) error {
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	sealed := m.aead.Seal(nonce, nonce, []byte(value), []byte(name))
	c := m.cookie(name, base64.RawURLEncoding.EncodeToString(sealed), maxAge)
	if size := len(c.String()); size > MaxSize {
		return fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, size)
	}
	http.SetCookie(w, c)

	return nil
}

// GetEncrypted returns ErrNotFound when the cookie is absent and ErrDecrypt
// when it was tampered with, written under another name or another secret.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(data) < m.aead.NonceSize() {
		return "", ErrDecrypt
	}

	nonce, sealed := data[:m.aead.NonceSize()], data[m.aead.NonceSize():]
	plain, err := m.aead.Open(nil, nonce, sealed, []byte(name))
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plain), nil
}

// Delete expires the cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// SetFlash stores value as JSON for the next request.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return m.SetEncrypted(w, flashPrefix+key, string(data), 0)
}

// Flash decodes the flash stored under key into dest and expires it.
// The cookie is expired even when it cannot be decoded.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	name := flashPrefix + key

	raw, err := m.GetEncrypted(r, name)
	if errors.Is(err, ErrNotFound) {
		return err
	}
	m.Delete(w, name)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return errors.Join(ErrDecrypt, err)
	}
	return nil
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	}
}
