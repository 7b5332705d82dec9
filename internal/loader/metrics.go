package loader

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sneaker_house/loader"

type metrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	failures  metric.Int64Counter
	fallbacks metric.Int64Counter
}

// newMetrics registers the loader instruments on the global meter provider,
// which is a no-op until the process installs one.
func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)
	m := &metrics{}
	var err error

	m.hits, err = meter.Int64Counter("catalog.cache.hits",
		metric.WithDescription("Fetches answered from the cache"))
	if err != nil {
		return nil, err
	}

	m.misses, err = meter.Int64Counter("catalog.cache.misses",
		metric.WithDescription("Fetches that had to go to the source"))
	if err != nil {
		return nil, err
	}

	m.failures, err = meter.Int64Counter("catalog.fetch.failures",
		metric.WithDescription("Retrievals that failed to produce a valid document"))
	if err != nil {
		return nil, err
	}

	m.fallbacks, err = meter.Int64Counter("catalog.fetch.fallbacks",
		metric.WithDescription("Failed retrievals replaced by fallback data"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func keyAttr(key string) metric.AddOption {
	return metric.WithAttributes(attribute.String("catalog.key", key))
}

func (m *metrics) hit(ctx context.Context, key string) { m.hits.Add(ctx, 1, keyAttr(key)) }

func (m *metrics) miss(ctx context.Context, key string) { m.misses.Add(ctx, 1, keyAttr(key)) }

func (m *metrics) failure(ctx context.Context, key string) { m.failures.Add(ctx, 1, keyAttr(key)) }

func (m *metrics) fallback(ctx context.Context, key string) { m.fallbacks.Add(ctx, 1, keyAttr(key)) }
