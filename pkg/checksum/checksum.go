// Package checksum computes the content digests used for drift detection.
//
// Digests are lowercase hex SHA-256 (64 characters). Content is normalized
// before hashing: CRLF and lone CR line endings become LF. Nothing is
// trimmed, so whitespace-only edits still change the digest.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

// ShortLength is the number of hex characters shown in user-facing messages.
const ShortLength = 8

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize converts all line endings in s to "\n".
func Normalize(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return lineEndings.Replace(s)
}

// Content returns the digest of s after line-ending normalization.
func Content(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

// File reads path as text and returns its digest. A missing file yields an
// ErrFileNotFound error so callers can tell "vanished" apart from "changed".
func File(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf(errors.ErrFileNotFound, "file not found: %s", path).
				WithDetail("path", path)
		}
		return "", errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", path).
			WithDetail("path", path)
	}
	return Content(string(data)), nil
}

// Short returns the leading ShortLength characters of a digest.
func Short(sum string) string {
	if len(sum) <= ShortLength {
		return sum
	}
	return sum[:ShortLength]
}
