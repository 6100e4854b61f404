// Package config loads generator settings from a config file and the
// environment.
//
// A file holds any number of named generators:
//
//	idgenerators:
//	  plataforma:
//	    id: 1
//	    epoch: 2024-01-01
//	    timestamp_bits: 41
//	    generator_id_bits: 10
//	    sequence_bits: 12
//
// Every key can be overridden from the environment, for example
// SNOWFLAKE_IDGENERATORS_PLATAFORMA_ID=7.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scaffolder/snowflake"
)

const (
	// Section is the top-level key holding the named generators.
	Section = "idgenerators"

	// DefaultGenerator is the generator name used when none is given.
	DefaultGenerator = "plataforma"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SNOWFLAKE"

	// DefaultEpoch is the epoch applied when none is configured.
	DefaultEpoch = "2024-01-01"
)

// ErrUnknownGenerator is returned when the requested generator has no id
// configured.
var ErrUnknownGenerator = errors.New("config: unknown generator")

// Generator is the configuration of one named generator.
type Generator struct {
	ID              int64  `mapstructure:"id" yaml:"id" validate:"gte=0"`
	Epoch           string `mapstructure:"epoch" yaml:"epoch" validate:"required"`
	TimestampBits   int    `mapstructure:"timestamp_bits" yaml:"timestamp_bits" validate:"gte=1,lte=63"`
	GeneratorIDBits int    `mapstructure:"generator_id_bits" yaml:"generator_id_bits" validate:"gte=0,lte=63"`
	SequenceBits    int    `mapstructure:"sequence_bits" yaml:"sequence_bits" validate:"gte=0,lte=63"`
}

// File is the layout of a config file.
type File struct {
	IDGenerators map[string]Generator `mapstructure:"idgenerators" yaml:"idgenerators"`
}

var validate = validator.New()

// Validate checks the field ranges of g.
func (g Generator) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("config: validate: %w", err)
	}
	return nil
}

// Default returns a generator with the given id and the default epoch and layout.
func Default(id int64) Generator {
	return Generator{
		ID:              id,
		Epoch:           DefaultEpoch,
		TimestampBits:   snowflake.LayoutDefault.TimestampBits,
		GeneratorIDBits: snowflake.LayoutDefault.GeneratorIDBits,
		SequenceBits:    snowflake.LayoutDefault.SequenceBits,
	}
}

func key(name, field string) string {
	return Section + "." + strings.ToLower(name) + "." + field
}

// SetDefaults registers defaults for the named generator. The generator ID
// has no default: every generator in a cluster needs its own.
func SetDefaults(v *viper.Viper, name string) {
	v.SetDefault(key(name, "epoch"), DefaultEpoch)
	v.SetDefault(key(name, "timestamp_bits"), snowflake.LayoutDefault.TimestampBits)
	v.SetDefault(key(name, "generator_id_bits"), snowflake.LayoutDefault.GeneratorIDBits)
	v.SetDefault(key(name, "sequence_bits"), snowflake.LayoutDefault.SequenceBits)
}

// BindEnv binds SNOWFLAKE_IDGENERATORS_<NAME>_<FIELD> for every field of the
// named generator.
func BindEnv(v *viper.Viper, name string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, field := range []string{"id", "epoch", "timestamp_bits", "generator_id_bits", "sequence_bits"} {
		_ = v.BindEnv(key(name, field))
	}
}

// New returns a viper instance reading path (optional) with defaults and
// environment bindings for the named generator.
func New(path, name string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v, name)
	BindEnv(v, name)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return v, nil
}

// Decode unmarshals every generator known to v.
func Decode(v *viper.Viper) (*File, error) {
	f := &File{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToStringHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(f, hook); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return f, nil
}

// timeToStringHook turns timestamps decoded by the YAML and TOML codecs, such
// as an unquoted epoch: 2024-01-01, back into the RFC 3339 text ParseEpoch reads.
func timeToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return data, nil
}

// Load reads the named generator from path and the environment and converts
// it into a snowflake.Config using the system clock.
func Load(path, name string) (snowflake.Config, error) {
	if name == "" {
		name = DefaultGenerator
	}

	v, err := New(path, name)
	if err != nil {
		return snowflake.Config{}, err
	}
	f, err := Decode(v)
	if err != nil {
		return snowflake.Config{}, err
	}

	// defaults alone do not make a generator: its id must be set somewhere
	g, ok := f.IDGenerators[strings.ToLower(name)]
	if !ok || !v.IsSet(key(name, "id")) {
		return snowflake.Config{}, fmt.Errorf("%w: %q has no id in file or environment", ErrUnknownGenerator, name)
	}
	if err := g.Validate(); err != nil {
		return snowflake.Config{}, fmt.Errorf("generator %q: %w", name, err)
	}
	return g.Snowflake()
}

// Snowflake converts g into a snowflake.Config. The result still has to pass
// snowflake.New, which checks the ranges that depend on the layout.
func (g Generator) Snowflake() (snowflake.Config, error) {
	epoch, err := ParseEpoch(g.Epoch)
	if err != nil {
		return snowflake.Config{}, err
	}
	return snowflake.Config{
		GeneratorID: g.ID,
		Epoch:       epoch,
		Layout: snowflake.Layout{
			TimestampBits:   g.TimestampBits,
			GeneratorIDBits: g.GeneratorIDBits,
			SequenceBits:    g.SequenceBits,
		},
		Clock: snowflake.SystemClock{},
	}, nil
}

// ParseEpoch accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Dates
// are taken as midnight UTC.
func ParseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("config: invalid epoch %q: want RFC 3339 or YYYY-MM-DD", s)
}

// Sample returns a YAML config file describing cfg under the given name.
func Sample(name string, cfg snowflake.Config) ([]byte, error) {
	if name == "" {
		name = DefaultGenerator
	}
	layout := cfg.Layout
	if layout == (snowflake.Layout{}) {
		layout = snowflake.LayoutDefault
	}
	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = snowflake.DefaultEpoch
	}

	f := File{IDGenerators: map[string]Generator{
		strings.ToLower(name): {
			ID:              cfg.GeneratorID,
			Epoch:           epoch.UTC().Format(time.RFC3339),
			TimestampBits:   layout.TimestampBits,
			GeneratorIDBits: layout.GeneratorIDBits,
			SequenceBits:    layout.SequenceBits,
		},
	}}
	return yaml.Marshal(f)
}
