package registry

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/trendalarm/internal/client"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	"github.com/patrickmn/go-cache"
)

// Well-known service names in the service catalog
const (
	ServiceDeviceCatalog    = "DeviceCatalog"
	ServiceTelemetryAdaptor = "ThingSpeak Adaptor"
	ServiceAlarmsTopic      = "ALARMS_TOPIC"
	ServiceBrokerAddress    = "broker_address"

	defaultTTL = 10 * time.Minute
)

type serviceEntry struct {
	Name string `json:"service_name"`
	URL  string `json:"service_url"`
}

// Registry looks up service URLs from the service catalog and caches them
type Registry struct {
	http  client.HTTPClient
	url   string
	cache *cache.Cache
}

func New(httpClient client.HTTPClient, serviceCatalogURL string, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Registry{
		http:  httpClient,
		url:   serviceCatalogURL,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Lookup returns the URL registered for name
func (r *Registry) Lookup(ctx context.Context, name string) (string, error) {
	if v, ok := r.cache.Get(name); ok {
		return v.(string), nil
	}

	if err := r.refresh(ctx); err != nil {
		return "", err
	}

	if v, ok := r.cache.Get(name); ok {
		return v.(string), nil
	}

	return "", errors.New().WithData(errors.ErrUnavailable, fmt.Sprintf("service %q not registered", name))
}

func (r *Registry) refresh(ctx context.Context) error {
	var services []serviceEntry
	if err := client.GetJSON(ctx, r.http, r.url, &services); err != nil {
		return errors.New().Wrap(errors.ErrUnavailable, err)
	}

	for _, s := range services {
		if s.Name == "" || s.URL == "" {
			continue
		}
		r.cache.SetDefault(s.Name, s.URL)
	}

	logger.Debug().
		Str("url", r.url).
		Int("services", len(services)).
		Msg("Service catalog refreshed")

	return nil
}

// Resolve returns value when set, otherwise a lookup of name
func (r *Registry) Resolve(value, name string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if value != "" {
			return value, nil
		}
		if r == nil {
			return "", errors.New().WithData(errors.ErrInvalidConfig, fmt.Sprintf("no address for %q and no service catalog", name))
		}

		return r.Lookup(ctx, name)
	}
}

// ResolveOptional is Resolve for settings with a built-in default: without a
// registry an unset value resolves to the empty string.
func (r *Registry) ResolveOptional(value, name string) func(ctx context.Context) (string, error) {
	if r == nil {
		return func(context.Context) (string, error) {
			return value, nil
		}
	}

	return r.Resolve(value, name)
}
