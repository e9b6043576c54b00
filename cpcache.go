// Package cpcache holds the shared domain types for the CMSIS-Pack catalog
// cache: the normalized device/board records produced by parsing vendor PDSC
// files and the index they're persisted into.
package cpcache

import "encoding/json"

// MemoryRegion is a named span of addressable memory on a device, as authored
// in a PDSC <memory> element. Start and Size are kept as the hex strings the
// PDSC author wrote; the cache never reinterprets them numerically.
type MemoryRegion struct {
	Start string `json:"start"`
	Size  string `json:"size"`
}

// Algorithm describes a flash programming algorithm: a relocatable binary
// living at a path inside the device's PACK archive, along with where it
// expects to be loaded and whether it's the default algorithm for its region.
type Algorithm struct {
	Start    string `json:"start"`
	Size     string `json:"size"`
	RAMStart string `json:"ram_start,omitempty"`
	RAMSize  string `json:"ram_size,omitempty"`
	Default  bool   `json:"default"`
}

// Compile holds the optional compiler header/define hints authored on a
// device, subfamily, or family element.
type Compile struct {
	Header string `json:"header,omitempty"`
	Define string `json:"define,omitempty"`
}

// Processor holds the optional core-configuration attributes authored on a
// device, subfamily, or family element.
type Processor struct {
	FPU        string `json:"fpu,omitempty"`
	Endianness string `json:"endianness,omitempty"`
	Clock      string `json:"clock,omitempty"`
}

// IsZero reports whether every field of p is empty, in which case the
// containing DeviceRecord must omit the processor section entirely:
// absent optional sections are omitted, never emitted empty, so the
// persisted schema stays stable for downstream consumers.
func (p Processor) IsZero() bool {
	return p.FPU == "" && p.Endianness == "" && p.Clock == ""
}

// IsZero reports whether every field of c is empty.
func (c Compile) IsZero() bool {
	return c.Header == "" && c.Define == ""
}

// DeviceRecord is the canonical, flattened record for a single silicon part,
// produced by merging a <device> element with its <subfamily>/<family>
// ancestors (see package pdsc).
type DeviceRecord struct {
	PdscFile  string                  `json:"pdsc_file"`
	PackFile  string                  `json:"pack_file"`
	Memory    map[string]MemoryRegion `json:"memory,omitempty"`
	Algorithm map[string]Algorithm    `json:"algorithm,omitempty"`
	Debug     string                  `json:"debug,omitempty"`
	Compile   *Compile                `json:"compile,omitempty"`
	Core      string                  `json:"core,omitempty"`
	Processor *Processor              `json:"processor,omitempty"`
	Vendor    string                  `json:"vendor,omitempty"`
	Family    string                  `json:"family,omitempty"`
	SubFamily string                  `json:"sub_family,omitempty"`
}

// AliasRecord is the relation from a board name back to the device names it
// mounts.
type AliasRecord struct {
	MountedDevices []string `json:"mounted_devices"`
}

// SchemaVersion is the "version" field persisted alongside the device index.
// It identifies the JSON schema in GlobalIndex, not the cache engine's own
// release.
const SchemaVersion = "0.1.0"

// GlobalIndex is the full persisted device catalog: every known device name
// mapped to its flattened record, plus the schema version of this document.
//
// On disk this is a single flat JSON object ({"version": "0.1.0", "SomeDevice":
// {...}, ...}), not a nested "devices" key, so GlobalIndex implements its own
// marshaling rather than relying on struct tags.
type GlobalIndex struct {
	Version string
	Devices map[string]DeviceRecord
}

// MarshalJSON implements json.Marshaler.
func (g GlobalIndex) MarshalJSON() ([]byte, error) {
	flat := make(map[string]json.RawMessage, len(g.Devices)+1)
	v, err := json.Marshal(g.Version)
	if err != nil {
		return nil, err
	}
	flat["version"] = v
	for name, rec := range g.Devices {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		flat[name] = b
	}
	return json.Marshal(flat)
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *GlobalIndex) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	g.Devices = make(map[string]DeviceRecord, len(flat))
	for name, raw := range flat {
		if name == "version" {
			if err := json.Unmarshal(raw, &g.Version); err != nil {
				return err
			}
			continue
		}
		var rec DeviceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		g.Devices[name] = rec
	}
	return nil
}

// GlobalAliases is the full persisted board-alias catalog.
type GlobalAliases map[string]AliasRecord
