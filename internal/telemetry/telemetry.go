package telemetry

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/client"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	"github.com/spf13/cast"
)

const timestampField = "timestamp"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

type adaptorFetcher struct {
	http   client.HTTPClient
	locate catalog.Locator
}

// New returns a Fetcher backed by the Telemetry Adaptor service,
// GET {base}/data/{deviceId}?days=N
func New(httpClient client.HTTPClient, locate catalog.Locator) Fetcher {
	return &adaptorFetcher{
		http:   httpClient,
		locate: locate,
	}
}

func (f *adaptorFetcher) Ready(ctx context.Context) error {
	if _, err := f.locate(ctx); err != nil {
		return errors.New().Wrap(ErrUnavailable, err)
	}

	return nil
}

func (f *adaptorFetcher) Fetch(ctx context.Context, deviceID string, windowDays int) ([]Sample, error) {
	errFactory := errors.New()

	base, err := f.locate(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/data/%s?%s",
		strings.TrimRight(base, "/"),
		url.PathEscape(deviceID),
		url.Values{"days": []string{strconv.Itoa(windowDays)}}.Encode(),
	)

	var raw []map[string]any
	if err := client.GetJSON(ctx, f.http, endpoint, &raw); err != nil {
		return nil, errFactory.Wrap(ErrDataError, err)
	}

	samples, err := Parse(raw)
	if err != nil {
		return nil, errFactory.Wrap(ErrDataError, fmt.Errorf("device %s: %w", deviceID, err))
	}

	logger.Debug().
		Str("device", deviceID).
		Int("window_days", windowDays).
		Int("samples", len(samples)).
		Msg("Telemetry fetched")

	return samples, nil
}

// Parse validates raw adaptor records and returns them oldest first. Values
// that are null, empty, boolean, not numeric or not finite are treated as
// missing.
func Parse(raw []map[string]any) ([]Sample, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty telemetry series")
	}

	samples := make([]Sample, 0, len(raw))
	recognized := false

	for i, record := range raw {
		ts, err := parseTimestamp(record[timestampField])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		values := make(map[string]float64, len(record))
		for key, v := range record {
			if key == timestampField || v == nil {
				continue
			}
			if !numeric(v) {
				continue
			}
			f, err := cast.ToFloat64E(v)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			values[key] = f
			recognized = true
		}

		samples = append(samples, Sample{Timestamp: ts, Values: values})
	}

	if !recognized {
		return nil, fmt.Errorf("no numeric sample fields in %d records", len(raw))
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	return samples, nil
}

// numeric filters out values cast would coerce to a number but the adaptor
// never sends as one
func numeric(v any) bool {
	switch x := v.(type) {
	case bool:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return true
	}
}

func parseTimestamp(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing %q field", timestampField)
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
