// Package secret keeps portal credentials at rest: a machine-bound cipher
// and the stores that persist the encrypted values.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/tartampluch/go-payslip/internal/config"
	"golang.org/x/crypto/pbkdf2"
)

// Cipher encrypts short strings into "enc:v1:" tokens with a key derived
// from a machine secret. Tokens are only readable on the machine that
// produced them.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the key from secret with PBKDF2-SHA256.
func NewCipher(secret string) (*Cipher, error) {
	key := pbkdf2.Key([]byte(secret), []byte(config.CipherSalt), config.CipherIterations, config.CipherKeyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCipherInit, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCipherInit, err)
	}
	return &Cipher{aead: gcm}, nil
}

// NewMachineCipher builds the Cipher bound to this machine's hardware
// address.
func NewMachineCipher() (*Cipher, error) {
	return NewCipher(MachineKey())
}

// MachineKey returns the first usable hardware address as 12 hex digits, or
// a fixed fallback when none is found.
func MachineKey() string {
	log := slog.With(config.LogKeyComponent, config.CompSecret)

	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			hw := iface.HardwareAddr
			if iface.Flags&net.FlagLoopback != 0 || len(hw) < 6 || isZero(hw) {
				continue
			}
			if hw[0]&0x02 != 0 {
				log.Warn(config.MsgMachineKeyLocal)
			}
			return hex.EncodeToString(hw[:6])
		}
	}

	log.Warn(config.MsgMachineKeyFail, config.LogKeyError, err)
	return config.CipherFallbackKey
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Encrypt returns the token for plain. An empty value stays empty. If
// encryption fails the plaintext is returned so the value is not lost.
func (c *Cipher) Encrypt(plain string) string {
	if plain == "" {
		return ""
	}
	token, err := c.seal(plain)
	if err != nil {
		slog.Error(config.MsgEncryptFailed,
			config.LogKeyComponent, config.CompSecret,
			config.LogKeyError, err,
		)
		return plain
	}
	return token
}

func (c *Cipher) seal(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrEncrypt, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return config.CipherTokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values that are not tokens, or tokens that do
// not decrypt with this machine's key, are returned unchanged.
func (c *Cipher) Decrypt(value string) string {
	log := slog.With(config.LogKeyComponent, config.CompSecret)

	if !IsToken(value) {
		if value != "" {
			log.Debug(config.MsgPlaintextToken)
		}
		return value
	}
	plain, err := c.open(value)
	if err != nil {
		log.Warn(config.MsgDecryptFailed, config.LogKeyError, err)
		return value
	}
	return plain
}

func (c *Cipher) open(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, config.CipherTokenPrefix))
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrDecrypt, err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n {
		return "", errors.New(config.ErrDecrypt)
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrDecrypt, err)
	}
	return string(plain), nil
}

// IsToken reports whether value carries the encrypted-token prefix.
func IsToken(value string) bool {
	return strings.HasPrefix(value, config.CipherTokenPrefix)
}
