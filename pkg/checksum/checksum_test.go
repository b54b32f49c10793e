// Test Type: Unit Test
// Description: Tests for content and file digests

package checksum_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/checksum"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestContent_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "hello",
			content: "hello",
			want:    "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checksum.Content(tt.content))
		})
	}
}

func TestContent_Deterministic(t *testing.T) {
	s := "# Rules\n\nAlways write tests.\n"
	first := checksum.Content(s)

	assert.Regexp(t, hexDigest, first)
	assert.Equal(t, first, checksum.Content(s))
}

func TestContent_DistinctInputs(t *testing.T) {
	inputs := []string{"a", "b", "c", "ab", "ba", "a ", " a", "A", "v1", "v2", "v1-edited", "hello"}

	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		sum := checksum.Content(in)
		if prev, ok := seen[sum]; ok {
			t.Fatalf("digest collision between %q and %q", prev, in)
		}
		seen[sum] = in
	}
	assert.Len(t, seen, len(inputs))
}

func TestContent_LineEndingNormalization(t *testing.T) {
	lf := "line one\nline two\n"

	assert.Equal(t, checksum.Content(lf), checksum.Content("line one\r\nline two\r\n"))
	assert.Equal(t, checksum.Content(lf), checksum.Content("line one\rline two\r"))

	// whitespace is significant
	assert.NotEqual(t, checksum.Content(lf), checksum.Content("line one\nline two\n "))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb\nc", checksum.Normalize("a\r\nb\rc"))
	assert.Equal(t, "untouched\n", checksum.Normalize("untouched\n"))
}

func TestFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/rules.md", []byte("v1"), 0644))

	sum, err := checksum.File(fs, "/project/rules.md")
	require.NoError(t, err)
	assert.Equal(t, checksum.Content("v1"), sum)
}

func TestFile_NotFound(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := checksum.File(fs, "/missing.md")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	assert.Contains(t, err.Error(), "file not found")
}

func TestFile_OnDisk(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	path := fmt.Sprintf("%s/out.txt", dir)
	require.NoError(t, afero.WriteFile(fs, path, []byte("hello"), 0644))

	sum, err := checksum.File(fs, path)
	require.NoError(t, err)
	assert.Equal(t, checksum.Content("hello"), sum)
}

func TestShort(t *testing.T) {
	sum := checksum.Content("v1")
	assert.Equal(t, sum[:8], checksum.Short(sum))
	assert.Equal(t, "abc", checksum.Short("abc"))
}
