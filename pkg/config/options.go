package config

import (
	"fmt"
	"maps"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Options controls how a configuration is parsed and resolved.
type Options struct {
	// Strict turns warnings about unparseable keys and failed value
	// coercions into errors. Interactive use keeps the lenient default;
	// migration and validation tooling should enable it.
	Strict bool

	// Defaults replaces the built-in defaults table. Keys must be lower case.
	Defaults map[string]string `validate:"omitempty,dive,keys,required,lowercase,endkeys"`

	// MaxLines bounds the size of the configuration text. Zero means no limit.
	MaxLines int `validate:"gte=0"`

	// Logger receives warnings. The zero value discards them.
	Logger zerolog.Logger `validate:"-"`
}

// Option configures Parse.
type Option func(*Options)

// WithStrict enables or disables strict mode.
func WithStrict(strict bool) Option {
	return func(o *Options) {
		o.Strict = strict
	}
}

// WithLogger sets the logger for parse and lookup warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDefaults replaces the built-in defaults table.
func WithDefaults(defaults map[string]string) Option {
	return func(o *Options) {
		o.Defaults = maps.Clone(defaults)
	}
}

// WithMaxLines rejects configuration text longer than n lines.
func WithMaxLines(n int) Option {
	return func(o *Options) {
		o.MaxLines = n
	}
}

var optionsValidator = validator.New()

func buildOptions(opts []Option) (Options, error) {
	o := Options{
		Defaults: BuiltinDefaults,
		Logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := optionsValidator.Struct(o); err != nil {
		return o, fmt.Errorf("invalid config options: %w", err)
	}
	return o, nil
}
