// Package cipher seals capsule messages under a passphrase.
//
// Envelopes use the OpenSSL "Salted__" format produced by CryptoJS in
// passphrase mode: base64(Salted__ || salt || AES-256-CBC(PKCS#7(payload))),
// with key and IV derived by EVP_BytesToKey over MD5. The payload is the
// message prefixed with Marker, which is how a decrypt detects a wrong
// passphrase.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/akyairhashvil/timecapsule/internal/config"
)

// Marker prefixes every sealed body.
const Marker = config.MarkerTag

const (
	saltHeader = "Salted__"
	saltLen    = 8
	keyLen     = 32
	ivLen      = aes.BlockSize
)

var (
	// ErrWrongPassphrase covers every decrypt failure. Callers cannot tell a
	// wrong passphrase from a damaged envelope.
	ErrWrongPassphrase = errors.New("passphrase does not match")
	ErrEmptyPassphrase = errors.New("passphrase is empty")
)

// DecryptError records which check rejected an envelope.
type DecryptError struct {
	Reason string
}

func (e *DecryptError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%v: %s", ErrWrongPassphrase, e.Reason)
}

func (e *DecryptError) Unwrap() error { return ErrWrongPassphrase }

func reject(reason string) error {
	return &DecryptError{Reason: reason}
}

// randReader is swapped in tests.
var randReader io.Reader = rand.Reader

// Encrypt seals body under passphrase.
func Encrypt(body, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrEmptyPassphrase
	}
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	return encryptWithSalt(body, passphrase, salt)
}

func encryptWithSalt(body, passphrase string, salt []byte) (string, error) {
	key, iv := deriveKey([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	plain := pad([]byte(Marker + body))
	out := make([]byte, len(saltHeader)+saltLen+len(plain))
	copy(out, saltHeader)
	copy(out[len(saltHeader):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(saltHeader)+saltLen:], plain)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens an envelope. Any failure yields an error matching
// ErrWrongPassphrase.
func Decrypt(envelope, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envelope))
	if err != nil {
		return "", reject("malformed encoding")
	}
	headerLen := len(saltHeader) + saltLen
	if len(raw) < headerLen || string(raw[:len(saltHeader)]) != saltHeader {
		return "", reject("missing salt header")
	}
	body := raw[headerLen:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return "", reject("truncated ciphertext")
	}
	key, iv := deriveKey([]byte(passphrase), raw[len(saltHeader):headerLen])
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", reject("key setup")
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)
	plain, ok := unpad(plain)
	if !ok {
		return "", reject("bad padding")
	}
	if !utf8.Valid(plain) {
		return "", reject("not text")
	}
	if !bytes.HasPrefix(plain, []byte(Marker)) {
		return "", reject("marker absent")
	}
	return string(plain[len(Marker):]), nil
}

// deriveKey is OpenSSL's EVP_BytesToKey with MD5 and a single iteration.
func deriveKey(passphrase, salt []byte) (key, iv []byte) {
	var (
		derived []byte
		prev    []byte
	)
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
