/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package remote

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// HMACKeyEnv is the environment variable carrying a run's signing key.
const HMACKeyEnv = "WEBHOOK_HMAC_KEY"

// NewKey returns a fresh per-run signing key.
func NewKey() string {
	return uuid.NewString()
}

// Sign returns the hex HMAC-SHA256 of the JSON encoding of payload.
func Sign(key string, payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(b)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether signature is the signature of payload under key.
func Verify(key string, payload any, signature string) bool {
	want, err := Sign(key, payload)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(signature))
}
