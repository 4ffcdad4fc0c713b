package telemetry

import (
	"strings"
	"time"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

const (
	envEndpoint    = "HURLDECK_OTEL_ENDPOINT"
	envInsecure    = "HURLDECK_OTEL_INSECURE"
	envService     = "HURLDECK_OTEL_SERVICE"
	envDialTimeout = "HURLDECK_OTEL_DIAL_TIMEOUT"
	envHeaders     = "HURLDECK_OTEL_HEADERS"

	defaultServiceName = "hurldeck"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads the exporter configuration from the environment. The
// getenv indirection keeps tests hermetic.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if insecure := strings.TrimSpace(getenv(envInsecure)); insecure != "" {
		cfg.Insecure = strings.EqualFold(insecure, "true") || insecure == "1"
	}
	if raw := strings.TrimSpace(getenv(envDialTimeout)); raw != "" {
		if dur, err := time.ParseDuration(raw); err == nil && dur > 0 {
			cfg.DialTimeout = dur
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders parses "key=value, key=value" pairs for the OTLP exporter.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.Index(pair, "=")
		if idx < 0 {
			return nil, errdef.New(errdef.CodeParse, "invalid header pair %q", pair)
		}
		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			return nil, errdef.New(errdef.CodeParse, "empty header name in %q", pair)
		}
		headers[key] = strings.TrimSpace(pair[idx+1:])
	}
	if len(headers) == 0 {
		return nil, nil
	}
	return headers, nil
}
