package ir

import (
	"bytes"
	"context"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

// Marshal encodes doc as YAML with two-space indentation.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrIRInvalid, "failed to encode rules")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrIRInvalid, "failed to encode rules")
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and validates a YAML document.
func Unmarshal(data []byte) (*Document, error) {
	doc := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrIRLoad, "failed to parse rules")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Store persists the document at a fixed path through a writer.
type Store struct {
	fs     afero.Fs
	path   string
	writer *writer.Writer
}

// NewStore returns a store for the document at path.
func NewStore(fs afero.Fs, path string, w *writer.Writer) *Store {
	return &Store{fs: fs, path: path, writer: w}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields an empty document and
// found=false.
func (s *Store) Load() (doc *Document, found bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), false, nil
		}
		return nil, false, errors.Wrapf(err, errors.ErrIRLoad, "failed to read %s", s.path)
	}
	doc, err = Unmarshal(data)
	if err != nil {
		return nil, true, errors.Wrapf(err, errors.ErrIRLoad, "failed to load %s", s.path)
	}
	return doc, true, nil
}

// Save validates and writes doc. The write is drift checked like any
// other generated file.
func (s *Store) Save(ctx context.Context, doc *Document, opts writer.WriteOptions) (writer.Outcome, error) {
	if doc.Version == "" {
		doc.Version = CurrentVersion
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}
	data, err := Marshal(doc)
	if err != nil {
		return "", err
	}
	return s.writer.Write(ctx, s.path, string(data), opts)
}
