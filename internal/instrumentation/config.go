package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Exporter types.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects exporters and labels for a Provider.
// Host and Kubernetes resource attributes come from OTEL_RESOURCE_ATTRIBUTES.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled turns metrics and tracing on (INSTRUMENTATION_ENABLED, default true).
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout. Empty means prometheus.
	MetricsExporter string
	// TracingExporter is otlp, stdout or none. Empty means none.
	TracingExporter string

	// OTLPEndpoint is host:port without scheme, required by either OTLP exporter.
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector. Spans carry user and
	// candidate IDs, so keep it for local collectors.
	OTLPInsecure bool

	TraceSamplingRate float64

	// DetailedLabels adds the user_id label to tool metrics.
	DetailedLabels bool
}

// DefaultConfig reads the configuration from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       env("OTEL_SERVICE_NAME", "inboxcal", asString),
		ServiceVersion:    "unknown",
		Enabled:           env("INSTRUMENTATION_ENABLED", true, strconv.ParseBool),
		MetricsExporter:   env("METRICS_EXPORTER", ExporterPrometheus, asString),
		TracingExporter:   env("TRACING_EXPORTER", ExporterNone, asString),
		OTLPEndpoint:      env("OTEL_EXPORTER_OTLP_ENDPOINT", "", asString),
		OTLPInsecure:      env("OTEL_EXPORTER_OTLP_INSECURE", false, strconv.ParseBool),
		TraceSamplingRate: env("OTEL_TRACES_SAMPLER_ARG", 0.1, asFloat),
		DetailedLabels:    env("METRICS_DETAILED_LABELS", false, strconv.ParseBool),
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}
	return nil
}

// env returns the parsed value of key. Unset or unparsable values yield fallback.
func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func asFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
