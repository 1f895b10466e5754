// Package encryption provides the symmetric encryption used for the router
// credentials file.
//
// Tokens use the Fernet format: version byte 0x80, big-endian 64-bit
// timestamp, 16-byte IV, AES-128-CBC ciphertext with PKCS7 padding and an
// HMAC-SHA256 over all preceding bytes, URL-safe base64 encoded. Keys are 32
// random bytes (16-byte signing key followed by 16-byte encryption key),
// URL-safe base64 encoded.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	KeySize = 32 // signing key (16) + AES-128 key (16)
	IVSize  = 16 // 128-bit IV for AES

	tokenVersion  = 0x80
	timestampSize = 8
	hmacSize      = sha256.Size
	headerSize    = 1 + timestampSize + IVSize

	// maxClockSkew is how far in the future a token timestamp may be when a
	// TTL is enforced.
	maxClockSkew = 60 * time.Second
)

var (
	// ErrInvalidKey is returned for keys that do not decode to KeySize bytes.
	ErrInvalidKey = errors.New("invalid encryption key")

	// ErrInvalidToken is returned for any token that fails decoding,
	// authentication or decryption. The cause is deliberately not exposed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned by DecryptWithTTL for tokens older than the TTL.
	ErrTokenExpired = errors.New("token expired")
)

// Key is a parsed encryption key.
type Key struct {
	signing    []byte
	encryption []byte
}

// GenerateKey generates a random 256-bit key
func GenerateKey() (*Key, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newKey(raw), nil
}

// ParseKey decodes a URL-safe base64 key as written by Key.Encode.
// Surrounding whitespace is ignored.
func ParseKey(encoded string) (*Key, error) {
	raw, err := decodeBase64(string(bytes.TrimSpace([]byte(encoded))))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}
	return newKey(raw), nil
}

func newKey(raw []byte) *Key {
	return &Key{
		signing:    append([]byte(nil), raw[:KeySize/2]...),
		encryption: append([]byte(nil), raw[KeySize/2:]...),
	}
}

// Encode returns the URL-safe base64 form of the key.
func (k *Key) Encode() string {
	raw := make([]byte, 0, KeySize)
	raw = append(raw, k.signing...)
	raw = append(raw, k.encryption...)
	return base64.URLEncoding.EncodeToString(raw)
}

// GenerateIV generates a random 128-bit initialization vector
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, nil
}

// Encrypt encrypts plaintext into a token stamped with the current time.
func Encrypt(key *Key, plaintext []byte) ([]byte, error) {
	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}
	return encryptAt(key, plaintext, iv, time.Now())
}

func encryptAt(key *Key, plaintext, iv []byte, now time.Time) ([]byte, error) {
	block, err := aes.NewCipher(key.encryption)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(append([]byte(nil), plaintext...), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	msg := make([]byte, 0, headerSize+len(ciphertext)+hmacSize)
	msg = append(msg, tokenVersion)
	msg = binary.BigEndian.AppendUint64(msg, uint64(now.Unix()))
	msg = append(msg, iv...)
	msg = append(msg, ciphertext...)
	msg = append(msg, sign(key, msg)...)

	out := make([]byte, base64.URLEncoding.EncodedLen(len(msg)))
	base64.URLEncoding.Encode(out, msg)
	return out, nil
}

// Decrypt authenticates and decrypts a token without checking its age.
func Decrypt(key *Key, token []byte) ([]byte, error) {
	plaintext, _, err := open(key, token)
	return plaintext, err
}

// DecryptWithTTL is like Decrypt but rejects tokens older than ttl or
// stamped too far in the future.
func DecryptWithTTL(key *Key, token []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	plaintext, issued, err := open(key, token)
	if err != nil {
		return nil, err
	}
	if issued.Add(ttl).Before(now) {
		return nil, ErrTokenExpired
	}
	if issued.After(now.Add(maxClockSkew)) {
		return nil, ErrInvalidToken
	}
	return plaintext, nil
}

func open(key *Key, token []byte) ([]byte, time.Time, error) {
	msg, err := decodeBase64(string(bytes.TrimSpace(token)))
	if err != nil {
		return nil, time.Time{}, ErrInvalidToken
	}
	if len(msg) < headerSize+aes.BlockSize+hmacSize || msg[0] != tokenVersion {
		return nil, time.Time{}, ErrInvalidToken
	}

	body, mac := msg[:len(msg)-hmacSize], msg[len(msg)-hmacSize:]
	if !hmac.Equal(mac, sign(key, body)) {
		return nil, time.Time{}, ErrInvalidToken
	}

	issued := time.Unix(int64(binary.BigEndian.Uint64(body[1:1+timestampSize])), 0)
	iv := body[1+timestampSize : headerSize]
	ciphertext := body[headerSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, time.Time{}, ErrInvalidToken
	}

	block, err := aes.NewCipher(key.encryption)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to create cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext)
	if err != nil {
		return nil, time.Time{}, ErrInvalidToken
	}
	return plaintext, issued, nil
}

func sign(key *Key, data []byte) []byte {
	mac := hmac.New(sha256.New, key.signing)
	mac.Write(data)
	return mac.Sum(nil)
}

// decodeBase64 accepts URL-safe base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(string(bytes.TrimRight([]byte(s), "=")))
}

// pkcs7Pad applies PKCS7 padding to the data
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padText := make([]byte, padding)
	for i := range padText {
		padText[i] = byte(padding)
	}
	return append(data, padText...)
}

// pkcs7Unpad removes PKCS7 padding from the data
// Verifies that all padding bytes have the correct value
func pkcs7Unpad(data []byte) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, fmt.Errorf("invalid padding: empty data")
	}
	padding := int(data[length-1])
	if padding > length || padding > aes.BlockSize || padding == 0 {
		return nil, fmt.Errorf("invalid padding size: %d", padding)
	}
	for i := 0; i < padding; i++ {
		if data[length-1-i] != byte(padding) {
			return nil, fmt.Errorf("invalid padding byte at position %d: expected %d, got %d", i, padding, data[length-1-i])
		}
	}
	return data[:length-padding], nil
}
