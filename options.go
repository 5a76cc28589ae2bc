package embfile

import (
	"log/slog"

	"github.com/janluke/embfile/core"
	"github.com/janluke/embfile/dtype"
)

type config struct {
	formatID string
	registry *Registry
	open     core.OpenOptions
	create   core.CreateOptions
}

func newConfig(opts []Option) *config {
	cfg := &config{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures Open, Create and the convenience constructors. Options
// that do not apply to the operation at hand are ignored.
type Option func(*config)

// WithFormat forces a format instead of inferring it from the file
// extension.
func WithFormat(formatID string) Option {
	return func(cfg *config) { cfg.formatID = formatID }
}

// WithRegistry resolves formats against a custom registry instead of
// DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(cfg *config) { cfg.registry = r }
}

// WithDType sets the element type of the stored vectors. On open it applies
// to formats that do not record their dtype (word2vec binary); on create it
// selects the encoding of binary formats. Default is little-endian float32.
func WithDType(dt dtype.DType) Option {
	return func(cfg *config) {
		cfg.open.DType = dt
		cfg.create.DType = dt
	}
}

// WithOutDType makes loaders convert the vectors they yield to dt.
func WithOutDType(dt dtype.DType) Option {
	return func(cfg *config) { cfg.open.OutDType = dt }
}

// WithVocabSize declares the number of entries. On open it supplies the
// count for headerless text files; on create it is required by formats
// whose header precedes the data, and validated by the others.
func WithVocabSize(n int) Option {
	return func(cfg *config) {
		cfg.open.VocabSize = n
		cfg.create.VocabSize = n
	}
}

// WithCompression compresses the created file with the codec of the given
// tag ("gzip", "zstd" or "lz4"). Without this option the codec is inferred
// from the target extension.
func WithCompression(tag string) Option {
	return func(cfg *config) { cfg.create.Compression = tag }
}

// WithPrecision sets the number of decimals written per vector component in
// the text format.
func WithPrecision(digits int) Option {
	return func(cfg *config) { cfg.create.Precision = digits }
}

// WithOverwrite allows Create to replace an existing file.
func WithOverwrite(overwrite bool) Option {
	return func(cfg *config) { cfg.create.Overwrite = overwrite }
}

// WithOverwriteOnDuplicate makes VVM creation keep the last vector seen for
// a repeated word instead of failing.
func WithOverwriteOnDuplicate(overwrite bool) Option {
	return func(cfg *config) { cfg.create.OverwriteOnDuplicate = overwrite }
}

// WithLogger routes the package's structured logs to handler. Logging is
// off by default.
func WithLogger(handler slog.Handler) Option {
	return func(cfg *config) {
		logger := core.NewLogger(handler)
		cfg.open.Logger = logger
		cfg.create.Logger = logger
	}
}
