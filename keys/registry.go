// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package keys holds the per-parachain signing keys used to authenticate
// message submissions. The registry is built once at startup and handed to
// the processor; it never changes afterwards.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSignature covers malformed signature bytes and failed
	// verification alike; callers must not learn which.
	ErrInvalidSignature = errors.New("signature verification failed")

	errMissingKeySource     = errors.New("secret key or seed phrase must be provided")
	errConflictingKeySource = errors.New("secret key and seed phrase are both provided; pick one source")
)

// UnknownChainError is returned when a parachain id has no registered key.
type UnknownChainError struct {
	ParaID uint32
}

func (e *UnknownChainError) Error() string {
	return fmt.Sprintf("parachain %d is not registered", e.ParaID)
}

// ChainKey is a configured key source for one parachain. Exactly one of
// SecretKey (hex, 32-byte seed or 64-byte keypair) or SeedPhrase may be set.
type ChainKey struct {
	ParaID     uint32
	SecretKey  string
	SeedPhrase string
}

// Keypair is the signing identity of one parachain.
type Keypair struct {
	ParaID uint32
	priv   ed25519.PrivateKey
}

// PublicKeyHex returns the hex-encoded verification key.
func (k *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.priv.Public().(ed25519.PublicKey))
}

// Sign signs a message with the parachain's key. Intended for tests and
// tooling; the service itself only verifies.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// Registry maps parachain ids to their signing keypairs.
type Registry struct {
	pairs map[uint32]*Keypair
}

// NewRegistry builds the registry for the given parachain ids, using the
// configured key sources where present and generating fresh keys elsewhere.
func NewRegistry(paraIDs []uint32, configured []ChainKey) (*Registry, error) {
	byID := make(map[uint32]ChainKey, len(configured))
	for _, entry := range configured {
		byID[entry.ParaID] = entry
	}

	pairs := make(map[uint32]*Keypair, len(paraIDs))
	for _, paraID := range paraIDs {
		var (
			priv ed25519.PrivateKey
			err  error
		)
		if entry, ok := byID[paraID]; ok {
			priv, err = keyFromConfig(entry)
			if err != nil {
				return nil, fmt.Errorf("failed to construct keypair for parachain %d: %w", paraID, err)
			}
		} else {
			_, priv, err = ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to generate keypair for parachain %d: %w", paraID, err)
			}
		}
		pairs[paraID] = &Keypair{ParaID: paraID, priv: priv}
	}

	return &Registry{pairs: pairs}, nil
}

// Get returns the keypair for a parachain id, if registered.
func (r *Registry) Get(paraID uint32) (*Keypair, bool) {
	pair, ok := r.pairs[paraID]
	return pair, ok
}

// Len returns the number of registered parachains.
func (r *Registry) Len() int {
	return len(r.pairs)
}

// Verify checks an ed25519 signature over message for the given parachain.
func (r *Registry) Verify(paraID uint32, message, signature []byte) error {
	pair, ok := r.pairs[paraID]
	if !ok {
		return &UnknownChainError{ParaID: paraID}
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: expected %d-byte signature, received %d bytes",
			ErrInvalidSignature, ed25519.SignatureSize, len(signature))
	}
	if !ed25519.Verify(pair.priv.Public().(ed25519.PublicKey), message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign signs message with the parachain's key. Intended for tests.
func (r *Registry) Sign(paraID uint32, message []byte) ([]byte, error) {
	pair, ok := r.pairs[paraID]
	if !ok {
		return nil, &UnknownChainError{ParaID: paraID}
	}
	return pair.Sign(message), nil
}

func keyFromConfig(entry ChainKey) (ed25519.PrivateKey, error) {
	hasSecret := strings.TrimSpace(entry.SecretKey) != ""
	hasSeed := strings.TrimSpace(entry.SeedPhrase) != ""

	switch {
	case hasSecret && hasSeed:
		return nil, errConflictingKeySource
	case hasSecret:
		return keyFromSecretHex(entry.SecretKey)
	case hasSeed:
		return keyFromSeedPhrase(entry.SeedPhrase), nil
	default:
		return nil, errMissingKeySource
	}
}

func keyFromSecretHex(secret string) (ed25519.PrivateKey, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(secret), "0x")
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secret key: %w", err)
	}
	switch len(decoded) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	default:
		return nil, fmt.Errorf("invalid secret key: expected %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(decoded))
	}
}

// keyFromSeedPhrase derives a deterministic keypair from a human seed
// phrase: the first 32 bytes of its SHA-512 digest become the ed25519 seed.
func keyFromSeedPhrase(seed string) ed25519.PrivateKey {
	digest := sha512.Sum512([]byte(seed))
	return ed25519.NewKeyFromSeed(digest[:ed25519.SeedSize])
}
