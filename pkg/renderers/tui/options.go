package tui

import (
	"github.com/goliatone/go-formflow/pkg/codec"
	"github.com/goliatone/go-formflow/pkg/resolver"
)

// Theme holds message prefixes the renderer applies to driver output.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithResolver overrides the control resolver.
func WithResolver(res *resolver.Resolver) Option {
	return func(r *Renderer) {
		if res != nil {
			r.resolver = res
		}
	}
}

// WithOutputFormat selects the encoding Render produces.
func WithOutputFormat(format codec.Format) Option {
	return func(r *Renderer) {
		if format != "" {
			r.format = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
