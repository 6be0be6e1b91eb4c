// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package hasher computes deterministic content hashes of row snapshots.
//
// Two rows with the same field set hash identically no matter which store
// they were read from or in which order their fields were populated. The
// sync engine compares these hashes to decide whether the primary store was
// modified independently of a pending change.
package hasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"github.com/MKhiriev/bank-mmudzi/models"
)

// DomainRow prefixes every row hash. The version suffix allows the
// canonical encoding to change without silently matching old hashes.
const DomainRow = "mmudzi/row/v1"

// Hasher hashes rows as SHA256(DomainRow + 0x00 + Canonical(row)).
// With a non-empty key, HMAC-SHA256 keyed by it is used instead.
// A Hasher is safe for concurrent use.
type Hasher struct {
	pool sync.Pool
}

// New returns a Hasher. An empty key selects plain SHA-256.
func New(key string) *Hasher {
	h := &Hasher{}
	if key == "" {
		h.pool.New = func() any { return sha256.New() }
	} else {
		k := []byte(key)
		h.pool.New = func() any { return hmac.New(sha256.New, k) }
	}
	return h
}

// Hash returns the hex-encoded content hash of row.
func (h *Hasher) Hash(row models.Row) (string, error) {
	data, err := Canonical(row)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCanonicalEncoding, err)
	}
	return hex.EncodeToString(h.sum(data)), nil
}

// Equal reports whether a and b have the same content hash.
func (h *Hasher) Equal(a, b models.Row) (bool, error) {
	ha, err := h.Hash(a)
	if err != nil {
		return false, err
	}
	hb, err := h.Hash(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func (h *Hasher) sum(data []byte) []byte {
	d := h.pool.Get().(hash.Hash)
	d.Reset()

	d.Write([]byte(DomainRow))
	d.Write([]byte{0x00})
	d.Write(data)
	sum := d.Sum(nil)

	d.Reset()
	h.pool.Put(d)

	return sum
}
