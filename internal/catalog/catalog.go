package catalog

import (
	"context"
	"fmt"

	"codeberg.org/mutker/trendalarm/internal/client"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
)

type thresholdEntry struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// deviceEntry accepts both {deviceId, thresholds} and the registry's
// {device_name, device_info: {thresholds}} shape.
type deviceEntry struct {
	DeviceID   string                    `json:"deviceId"`
	DeviceName string                    `json:"device_name"`
	Thresholds map[string]thresholdEntry `json:"thresholds"`
	DeviceInfo *struct {
		Thresholds map[string]thresholdEntry `json:"thresholds"`
	} `json:"device_info"`
}

type enumerator struct {
	http   client.HTTPClient
	locate Locator
}

// New returns a Lister backed by the Device Catalog service
func New(httpClient client.HTTPClient, locate Locator) Lister {
	return &enumerator{
		http:   httpClient,
		locate: locate,
	}
}

// ListDevices returns every device or fails as a whole; a partial list is
// never returned.
func (e *enumerator) ListDevices(ctx context.Context) ([]Device, error) {
	errFactory := errors.New()

	url, err := e.locate(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrCatalogUnavailable, err)
	}

	var entries []deviceEntry
	if err := client.GetJSON(ctx, e.http, url, &entries); err != nil {
		return nil, errFactory.Wrap(errors.ErrCatalogUnavailable, err)
	}

	devices, err := parseEntries(entries)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrCatalogUnavailable, err)
	}

	logger.Debug().
		Str("url", url).
		Int("devices", len(devices)).
		Msg("Device catalog fetched")

	return devices, nil
}

func parseEntries(entries []deviceEntry) ([]Device, error) {
	devices := make([]Device, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for i, entry := range entries {
		id := entry.DeviceID
		if id == "" {
			id = entry.DeviceName
		}
		if id == "" {
			return nil, fmt.Errorf("entry %d has no device id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate device id %q", id)
		}
		seen[id] = struct{}{}

		raw := entry.Thresholds
		if len(raw) == 0 && entry.DeviceInfo != nil {
			raw = entry.DeviceInfo.Thresholds
		}

		thresholds := make(map[string]Threshold, len(raw))
		for variable, th := range raw {
			t := Threshold{Min: th.Min, Max: th.Max}
			if err := t.validate(); err != nil {
				return nil, fmt.Errorf("device %q variable %q: %w", id, variable, err)
			}
			thresholds[variable] = t
		}

		devices = append(devices, Device{ID: id, Thresholds: thresholds})
	}

	return devices, nil
}
