package pdftpl

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/lvillar/pdftpl/assemble"
	"github.com/lvillar/pdftpl/render"
)

// DefaultProducer is written to /Producer unless WithProducer overrides it.
const DefaultProducer = "pdftpl"

// Option is a functional option for configuring a generation run.
type Option func(*generateConfig)

type generateConfig struct {
	compress     bool
	info         assemble.Info
	lang         string
	logger       *slog.Logger
	onDiagnostic func(page int, d render.Diagnostic)
}

func newConfig(opts []Option) *generateConfig {
	cfg := &generateConfig{
		compress: true,
		info:     assemble.Info{Producer: DefaultProducer},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// assembleConfig validates the options and converts them for the assembler.
func (c *generateConfig) assembleConfig() (assemble.Config, error) {
	cfg := assemble.Config{
		Compress:     c.compress,
		Info:         c.info,
		Logger:       c.logger,
		OnDiagnostic: c.onDiagnostic,
	}
	if c.lang != "" {
		tag, err := language.Parse(c.lang)
		if err != nil {
			return cfg, fmt.Errorf("%w: language %q: %v", ErrInvalidInput, c.lang, err)
		}
		cfg.Language = tag.String()
	}
	return cfg, nil
}

// WithCompression enables or disables FlateDecode compression of content
// streams. Compression is on by default.
func WithCompression(on bool) Option {
	return func(c *generateConfig) {
		c.compress = on
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(c *generateConfig) {
		c.info.Title = title
	}
}

// WithAuthor sets the document author.
func WithAuthor(author string) Option {
	return func(c *generateConfig) {
		c.info.Author = author
	}
}

// WithSubject sets the document subject.
func WithSubject(subject string) Option {
	return func(c *generateConfig) {
		c.info.Subject = subject
	}
}

// WithKeywords sets the document keywords.
func WithKeywords(keywords string) Option {
	return func(c *generateConfig) {
		c.info.Keywords = keywords
	}
}

// WithCreator sets the name of the application that created the content.
func WithCreator(creator string) Option {
	return func(c *generateConfig) {
		c.info.Creator = creator
	}
}

// WithProducer overrides DefaultProducer.
func WithProducer(producer string) Option {
	return func(c *generateConfig) {
		c.info.Producer = producer
	}
}

// WithLanguage sets the document's natural language as a BCP 47 tag, e.g.
// "en-US". The tag is canonicalized; an unparsable tag fails generation with
// ErrInvalidInput.
func WithLanguage(tag string) Option {
	return func(c *generateConfig) {
		c.lang = tag
	}
}

// WithCreationDate fixes the creation and modification dates. Together with
// identical inputs it makes the output byte-for-byte reproducible.
func WithCreationDate(t time.Time) Option {
	return func(c *generateConfig) {
		c.info.CreationDate = t
	}
}

// WithLogger sets the logger that receives diagnostics. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *generateConfig) {
		c.logger = l
	}
}

// WithDiagnosticHandler registers fn to be called for every field that could
// not be fully rendered, with the 1-based output page number.
func WithDiagnosticHandler(fn func(page int, d render.Diagnostic)) Option {
	return func(c *generateConfig) {
		c.onDiagnostic = fn
	}
}
