package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
)

//go:embed embedded/defaults.yaml
var defaultConfig []byte

const (
	// EnvPrefix namespaces environment overrides. Nested keys use a double
	// underscore: ALIGNTRUE_SYNC__CONCURRENCY=8.
	EnvPrefix = "ALIGNTRUE_"
	envNest   = "__"

	// Dir is the per-project state directory.
	Dir = ".aligntrue"
)

// FileNames are the project config files looked up under Dir, in order.
var FileNames = []string{"config.yaml", "config.yml", "config.toml"}

// DefaultContent returns the embedded defaults, used as the starting
// config written by "aligntrue init".
func DefaultContent() []byte {
	return defaultConfig
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions selects the sources for Load.
type LoadOptions struct {
	// Root is the project root. The config file is looked up under it.
	Root string
	// File overrides the config file location.
	File string
	// Overrides are applied last, keyed by dotted path ("sync.atomic").
	Overrides map[string]interface{}
	// KnownExporters enables exporter name validation when non-nil.
	KnownExporters []string
}

// Load resolves configuration from every layer and validates it.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load built-in defaults")
	}

	// 2. Project config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path).
				WithDetail("file", path)
		}
		logger.Debug().Str("file", path).Msg("Loaded project config")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToSpecHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}
	cfg.Source = path

	if err := cfg.Validate(opts.KnownExporters); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", opts.File)
		}
		return opts.File, nil
	}
	if opts.Root == "" {
		return "", nil
	}
	for _, name := range FileNames {
		candidate := filepath.Join(opts.Root, Dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}

// envKey maps ALIGNTRUE_SYNC__TEMP_DIR to sync.temp_dir.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, envNest, ".")
}

var specType = reflect.TypeOf(editsource.Spec{})

// stringToSpecHookFunc lets a single string stand in for a pattern list.
// Commas split patterns except inside {a,b} brace alternatives.
func stringToSpecHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != specType {
			return data, nil
		}
		return editsource.NewSpec(splitPatterns(data.(string))...), nil
	}
}

func splitPatterns(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
