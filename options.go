package lexgo

import (
	"github.com/hupe1980/lexgo/analysis"
	"github.com/hupe1980/lexgo/postings"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/segment"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	analyzerName     string
	formatFlag       postings.OptionFlag
	compression      segment.Compression
	resourceConfig   resource.Config
	lengthPath       string
}

// Option configures Open behavior. Format and compression are baked into
// flushed segments; changing them later only affects new segments.
type Option func(*options)

// WithLogger configures structured logging. Logging is disabled by
// default; passing nil keeps it disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithAnalyzer selects the registered analyzer used to tokenize columns.
// Defaults to "standard".
func WithAnalyzer(name string) Option {
	return func(o *options) {
		o.analyzerName = name
	}
}

// WithFormatFlags selects which optional posting data new segments carry.
// Defaults to frequencies plus positions.
func WithFormatFlags(flag postings.OptionFlag) Option {
	return func(o *options) {
		o.formatFlag = flag
	}
}

// WithCompression selects the section compression of new segments.
func WithCompression(c segment.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResourceLimits installs limits on build memory, concurrent inversion
// workers, and flush IO throughput.
func WithResourceLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

// WithLengthFile persists per-row token counts to the given local file (the
// ".len" sidecar) in addition to the in-memory array.
func WithLengthFile(path string) Option {
	return func(o *options) {
		o.lengthPath = path
	}
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		analyzerName:     analysis.StandardName,
		formatFlag:       postings.OptionFrequency | postings.OptionPositionList,
		compression:      segment.CompressionZSTD,
	}
}
