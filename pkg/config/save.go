package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/writer"
)

const editSourceKey = "edit_source"

// SetEditSource records spec as edit_source in the project config file and
// returns its path. Without a config file, .aligntrue/config.yaml is
// created from the defaults. YAML files keep their comments.
func SetEditSource(ctx context.Context, w *writer.Writer, root string, cfg *Config, spec editsource.Spec) (string, error) {
	path := cfg.Source
	if path == "" {
		path = filepath.Join(root, Dir, FileNames[0])
	}

	data, err := afero.ReadFile(w.FS(), path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path)
		}
		data = DefaultContent()
	}

	var out []byte
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		out, err = setTOMLKey(data, editSourceKey, []string(spec))
	} else {
		out, err = setYAMLKey(data, editSourceKey, spec)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigParse, "failed to update %s", path).
			WithDetail("file", path)
	}

	if _, err := w.Write(ctx, path, string(out), writer.WriteOptions{Force: true}); err != nil {
		return "", err
	}
	cfg.EditSource = spec
	cfg.Source = path
	return path, nil
}

func setYAMLKey(data []byte, key string, value interface{}) ([]byte, error) {
	var doc yamlv3.Node
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		doc = yamlv3.Node{Kind: yamlv3.DocumentNode, Content: []*yamlv3.Node{{Kind: yamlv3.MappingNode}}}
	}
	mapping := doc.Content[0]
	if mapping.Kind != yamlv3.MappingNode {
		return nil, errors.New(errors.ErrConfigParse, "config root is not a mapping")
	}

	var valueNode yamlv3.Node
	if err := valueNode.Encode(value); err != nil {
		return nil, err
	}

	replaced := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &valueNode
			replaced = true
			break
		}
	}
	if !replaced {
		mapping.Content = append(mapping.Content,
			&yamlv3.Node{Kind: yamlv3.ScalarNode, Value: key},
			&valueNode)
	}

	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setTOMLKey(data []byte, key string, value interface{}) ([]byte, error) {
	m := make(map[string]interface{})
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m[key] = value
	return toml.Marshal(m)
}
