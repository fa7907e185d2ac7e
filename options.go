package texsync

import (
	"image/color"
	"log/slog"

	"github.com/gogpu/gputypes"
)

// DefaultTextureName is the name under which canvas textures are allocated.
const DefaultTextureName = "canvas"

// SamplingOptions selects the texture filters a backend applies when the
// canvas texture is drawn larger (Magnification) or smaller (Minification)
// than its native size.
type SamplingOptions struct {
	Magnification gputypes.FilterMode
	Minification  gputypes.FilterMode
}

// DefaultSampling keeps canvas pixels crisp when zoomed in and smooth when
// zoomed out.
var DefaultSampling = SamplingOptions{
	Magnification: gputypes.FilterModeNearest,
	Minification:  gputypes.FilterModeLinear,
}

// Option configures a Canvas or Synchronizer during creation.
//
// Example:
//
//	c, err := texsync.New(cache, texsync.Sz(800, 600),
//	    texsync.WithSparseCapacity(64),
//	    texsync.WithBackground(color.RGBA{A: 0xff}),
//	)
type Option func(*options)

// options holds optional configuration.
type options struct {
	capacity   int
	background color.RGBA
	sampling   SamplingOptions
	name       string
	logger     *slog.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		capacity:   DefaultSparseCapacity,
		background: Background,
		sampling:   DefaultSampling,
		name:       DefaultTextureName,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithSparseCapacity sets how many unique cells the damage tracker
// enumerates before it switches to a bounding box.
// Non-positive values keep DefaultSparseCapacity.
func WithSparseCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithBackground sets the color of newly created and newly exposed cells.
func WithBackground(c color.RGBA) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithSampling sets the filters attached to every texture upload.
func WithSampling(s SamplingOptions) Option {
	return func(o *options) {
		o.sampling = s
	}
}

// WithTextureName sets the name passed to TextureCache.Allocate.
func WithTextureName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger overrides the package logger for one canvas.
// The logger is also handed to the texture cache if it accepts one.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
