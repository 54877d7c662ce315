// Package fingerprint derives stable identities for large measurement files
// without hashing their full contents.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// DefaultHeadBytes is how much of the file head goes into the signature.
const DefaultHeadBytes = 2_000_000

// idPrefixLen is how many signature hex chars form the measurement id.
const idPrefixLen = 12

// Signature computes a stable fingerprint for a file: sha256 over the file
// size, the mtime truncated to whole seconds, and the first headBytes bytes
// of content. headBytes <= 0 selects DefaultHeadBytes.
//
// A content change strictly after the head window, with size and mtime
// unchanged, is not detected. That is the deliberate tradeoff for skipping
// full-file hashing of multi-gigabyte logs.
func Signature(path string, headBytes int) (string, error) {
	if headBytes <= 0 {
		headBytes = DefaultHeadBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
	h.Write([]byte(strconv.FormatInt(info.ModTime().Unix(), 10)))

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.CopyN(h, f, int64(headBytes)); err != nil && err != io.EOF {
		return "", fmt.Errorf("read head of %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// MeasurementID derives the durable measurement id from a signature.
// The same file (same signature) always maps to the same id.
func MeasurementID(signature string) string {
	if len(signature) > idPrefixLen {
		signature = signature[:idPrefixLen]
	}
	return "m_" + signature
}
