// Package crypto implements the buffer cipher used to encrypt documents at
// rest: AES-256-GCM with a key derived from a single configured secret via
// scrypt. Every stored blob is self-contained: iv || tag || ciphertext.
//
// The layout constants are format-frozen. IVLength and TagLength are known
// to both Encrypt and Decrypt; changing either breaks every previously
// stored blob, so any change requires an explicit format version.
//
// All documents share one key derived from the same key material. There is
// no per-document key and no rotation; a stronger scheme would wrap a
// per-document key with a master key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	// IVLength is the AES-GCM nonce size in bytes.
	IVLength = 16
	// TagLength is the AES-GCM authentication tag size in bytes.
	TagLength = 16

	keyLength  = 32
	scryptN    = 16384
	scryptR    = 8
	scryptP    = 1
	scryptSalt = "salt"
)

// additionalData is bound into every seal as AEAD associated data.
var additionalData = []byte("additional-data")

var (
	// ErrFormat indicates a blob shorter than the fixed iv+tag header.
	ErrFormat = errors.New("encrypted blob is malformed")
	// ErrIntegrity indicates tag verification failed: the blob was tampered
	// with or the key material is wrong.
	ErrIntegrity = errors.New("encrypted blob failed integrity check")
)

// deriveKey turns the configured key material into a fixed-length AES key.
// Deterministic: the same material always yields the same key.
func deriveKey(keyMaterial string) ([]byte, error) {
	key, err := scrypt.Key([]byte(keyMaterial), []byte(scryptSalt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

func newAEAD(keyMaterial string) (cipher.AEAD, error) {
	key, err := deriveKey(keyMaterial)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, IVLength)
}

// Encrypt seals plaintext into a self-contained blob. A fresh random IV is
// generated per call, so encrypting the same plaintext twice yields
// different outputs that both decrypt to the same bytes. A zero-byte
// plaintext is valid input.
func Encrypt(plaintext []byte, keyMaterial string) ([]byte, error) {
	aead, err := newAEAD(keyMaterial)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	// Seal appends the tag after the ciphertext; the stored layout puts the
	// tag between iv and ciphertext, so re-slice.
	sealed := aead.Seal(nil, iv, plaintext, additionalData)
	ciphertext := sealed[:len(sealed)-TagLength]
	tag := sealed[len(sealed)-TagLength:]

	blob := make([]byte, 0, IVLength+TagLength+len(ciphertext))
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. It returns ErrFormat when the
// blob is shorter than the fixed header and ErrIntegrity when the tag does
// not verify; partial plaintext is never returned.
func Decrypt(blob []byte, keyMaterial string) ([]byte, error) {
	if len(blob) < IVLength+TagLength {
		return nil, ErrFormat
	}

	aead, err := newAEAD(keyMaterial)
	if err != nil {
		return nil, err
	}

	iv := blob[:IVLength]
	tag := blob[IVLength : IVLength+TagLength]
	ciphertext := blob[IVLength+TagLength:]

	sealed := make([]byte, 0, len(ciphertext)+TagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if plaintext == nil {
		// Open returns a nil slice for an empty ciphertext; callers get a
		// real zero-length plaintext either way.
		plaintext = []byte{}
	}
	return plaintext, nil
}
