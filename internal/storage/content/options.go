package content

import "github.com/maruel/mdpages/internal/render"

// Option configures a DocumentService or a PageService.
type Option func(*options)

type options struct {
	render func(string) string
	strict bool
}

func newOptions(opts []Option) options {
	o := options{render: render.HTML}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRenderer replaces the markdown renderer used for page renderings.
func WithRenderer(fn func(string) string) Option {
	return func(o *options) {
		o.render = fn
	}
}

// WithStrictIdentifiers rejects empty identifiers before touching storage.
func WithStrictIdentifiers(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}
