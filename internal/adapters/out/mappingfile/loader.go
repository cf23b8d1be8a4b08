// Package mappingfile loads per-vendor status mapping overrides from YAML.
//
// The file lists, per vendor id, the raw statuses the vendor sends:
//
//	vendors:
//	  acme:
//	    - vendorStatus: PREFLIGHT_OK
//	      status: Production
//	      event: files_approved
//	    - vendorStatus: SHIPPED
//	      status: Shipped
//
// event may be omitted when exactly one vendor-originated transition of the table
// leads to status.
package mappingfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/vendor"

	"gopkg.in/yaml.v3"
)

// File is the document layout.
type File struct {
	Vendors map[string][]Entry `yaml:"vendors"`
}

// Entry is one raw status of one vendor.
type Entry struct {
	VendorStatus string `yaml:"vendorStatus"`
	Status       string `yaml:"status"`
	Event        string `yaml:"event"`
}

// LoadFile reads path. A missing file yields no overrides.
func LoadFile(path string, table order.Table) (map[string][]vendor.Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]vendor.Mapping{}, nil
		}
		return nil, fmt.Errorf("read vendor mappings %s: %w", path, err)
	}

	overrides, err := Load(bytes.NewReader(raw), table)
	if err != nil {
		return nil, fmt.Errorf("vendor mappings %s: %w", path, err)
	}
	return overrides, nil
}

// Load decodes a mapping document. Unknown keys are rejected.
func Load(r io.Reader, table order.Table) (map[string][]vendor.Mapping, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	overrides := make(map[string][]vendor.Mapping, len(file.Vendors))
	var problems []error
	for _, vendorID := range slices.Sorted(maps.Keys(file.Vendors)) {
		mappings := make([]vendor.Mapping, 0, len(file.Vendors[vendorID]))
		for i, entry := range file.Vendors[vendorID] {
			m, err := entry.toMapping(table)
			if err != nil {
				problems = append(problems, fmt.Errorf("%s entry %d: %w", vendorID, i, err))
				continue
			}
			mappings = append(mappings, m)
		}
		overrides[vendorID] = mappings
	}

	if err := errors.Join(problems...); err != nil {
		return nil, err
	}
	return overrides, nil
}

func (e Entry) toMapping(table order.Table) (vendor.Mapping, error) {
	status, err := order.ParseStatus(e.Status)
	if err != nil {
		return vendor.Mapping{}, err
	}

	if e.Event != "" {
		event, err := order.NewEvent(e.Event)
		if err != nil {
			return vendor.Mapping{}, err
		}
		return vendor.Mapping{VendorStatus: e.VendorStatus, InternalStatus: status, Event: event}, nil
	}

	event, err := inferEvent(table, status)
	if err != nil {
		return vendor.Mapping{}, err
	}
	return vendor.Mapping{VendorStatus: e.VendorStatus, InternalStatus: status, Event: event}, nil
}

func inferEvent(table order.Table, status order.Status) (order.Event, error) {
	var candidates []order.Event
	for _, row := range table.Rows() {
		if row.To == status && row.Origin() == order.OriginVendor && !slices.Contains(candidates, row.Event) {
			candidates = append(candidates, row.Event)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("no vendor event leads to %s", status)
	default:
		return "", fmt.Errorf("event is ambiguous for %s: one of %v", status, candidates)
	}
}
