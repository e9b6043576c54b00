// Package pdsc extracts a normalized DeviceRecord per device from a vendor
// PDSC document by flattening the family/subfamily/device inheritance
// hierarchy, and derives a device's PACK archive URL from its owning PDSC.
//
// The extraction algorithm is modeled as an explicit scope chain over the
// nesting levels, merging sectioned dictionaries outermost-first and
// picking single values innermost-first.
package pdsc

import (
	"context"
	"strings"

	"github.com/quay/zlog"

	"github.com/cmsispack/cpcache"
)

// level is one rung of a device's inheritance scope chain (family,
// subfamily, or device).
type level struct {
	dfamily    string
	dsubfamily string
	dvendor    string
	memory     []xmlMemory
	algorithm  []xmlAlgorithm
	processor  []xmlProcessor
	compile    []xmlCompile
	debug      []xmlDebug
}

func familyLevel(f xmlFamily) level {
	return level{
		dfamily:   f.Dfamily,
		dvendor:   f.Dvendor,
		memory:    f.Memory,
		algorithm: f.Algorithm,
		processor: f.Processor,
		compile:   f.Compile,
		debug:     f.Debug,
	}
}

func subfamilyLevel(s xmlSubfamily) level {
	return level{
		dsubfamily: s.DsubFamily,
		dvendor:    s.Dvendor,
		memory:     s.Memory,
		algorithm:  s.Algorithm,
		processor:  s.Processor,
		compile:    s.Compile,
		debug:      s.Debug,
	}
}

func deviceLevel(d xmlDevice) level {
	return level{
		dvendor:   d.Dvendor,
		memory:    d.Memory,
		algorithm: d.Algorithm,
		processor: d.Processor,
		compile:   d.Compile,
		debug:     d.Debug,
	}
}

// scopeChain is a device's ancestors, outermost (family) first, innermost
// (device) last. It has two or three elements depending on whether the
// device sits directly under a family or under an intervening subfamily.
type scopeChain []level

// mergeMemory merges the memory sections of every level in the chain,
// outermost first, so a device-level region with the same id overrides its
// subfamily/family counterpart.
func (c scopeChain) mergeMemory() map[string]cpcache.MemoryRegion {
	out := map[string]cpcache.MemoryRegion{}
	for _, lvl := range c {
		for _, m := range lvl.memory {
			if m.ID == "" {
				continue
			}
			out[m.ID] = cpcache.MemoryRegion{Start: m.Start, Size: m.Size}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeAlgorithm merges the algorithm sections of every level, outermost
// first. Keys (and the stored path) have backslashes normalized to forward
// slashes, since PDSCs authored on Windows tooling use them inconsistently.
func (c scopeChain) mergeAlgorithm() map[string]cpcache.Algorithm {
	out := map[string]cpcache.Algorithm{}
	for _, lvl := range c {
		for _, a := range lvl.algorithm {
			if a.Name == "" {
				continue
			}
			path := strings.ReplaceAll(a.Name, `\`, `/`)
			out[path] = cpcache.Algorithm{
				Start:    a.Start,
				Size:     a.Size,
				RAMStart: a.RAMStart,
				RAMSize:  a.RAMSize,
				Default:  algorithmDefault(a.Default),
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// algorithmDefault interprets an algorithm's default attribute, which is
// true (1) when absent.
func algorithmDefault(raw string) bool {
	switch raw {
	case "", "1", "true":
		return true
	default:
		return false
	}
}

// mergeProcessor merges the processor attribute sections of every level,
// outermost first, keyed by attribute name.
func (c scopeChain) mergeProcessor() cpcache.Processor {
	var p cpcache.Processor
	for _, lvl := range c {
		for _, proc := range lvl.processor {
			if proc.Dfpu != "" {
				p.FPU = proc.Dfpu
			}
			if proc.Dendian != "" {
				p.Endianness = proc.Dendian
			}
			if proc.Dclock != "" {
				p.Clock = proc.Dclock
			}
		}
	}
	return p
}

// mergeCompile merges the compile attribute sections of every level,
// outermost first.
func (c scopeChain) mergeCompile() cpcache.Compile {
	var cp cpcache.Compile
	for _, lvl := range c {
		for _, cc := range lvl.compile {
			if cc.Header != "" {
				cp.Header = cc.Header
			}
			if cc.Define != "" {
				cp.Define = cc.Define
			}
		}
	}
	return cp
}

// pickDebug returns the innermost (device-first) non-empty <debug svd=...>.
func (c scopeChain) pickDebug() string {
	for i := len(c) - 1; i >= 0; i-- {
		for _, d := range c[i].debug {
			if d.SVD != "" {
				return d.SVD
			}
		}
	}
	return ""
}

// pickCore returns the innermost non-empty processor Dcore attribute.
func (c scopeChain) pickCore() string {
	for i := len(c) - 1; i >= 0; i-- {
		for _, p := range c[i].processor {
			if p.Dcore != "" {
				return p.Dcore
			}
		}
	}
	return ""
}

// pickVendor returns the innermost non-empty Dvendor attribute on an
// ancestor element itself (not the processor).
func (c scopeChain) pickVendor() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].dvendor != "" {
			return c[i].dvendor
		}
	}
	return ""
}

// pickFamily returns the Dfamily name of the chain's family level.
func (c scopeChain) pickFamily() string {
	for _, lvl := range c {
		if lvl.dfamily != "" {
			return lvl.dfamily
		}
	}
	return ""
}

// pickSubFamily returns the DsubFamily name of the chain's subfamily level,
// if the device sits under one.
func (c scopeChain) pickSubFamily() string {
	for _, lvl := range c {
		if lvl.dsubfamily != "" {
			return lvl.dsubfamily
		}
	}
	return ""
}

// ExtractDevices walks every family/subfamily/device in doc and returns one
// DeviceRecord per device that has a name, plus one AliasRecord per named
// board that mounts at least one named device.
// A device missing even a name is skipped with a logged error; it does not
// abort extraction of the rest of the PDSC.
func ExtractDevices(ctx context.Context, doc *Document, pdscURL, packURL string) (map[string]cpcache.DeviceRecord, map[string]cpcache.AliasRecord) {
	ctx = zlog.ContextWithValues(ctx, "component", "pdsc/ExtractDevices", "pdsc", pdscURL)

	devices := map[string]cpcache.DeviceRecord{}
	for _, fam := range doc.Devices.Family {
		famLvl := familyLevel(fam)

		for _, dev := range fam.Device {
			addDevice(ctx, devices, scopeChain{famLvl, deviceLevel(dev)}, dev.Dname, pdscURL, packURL)
		}
		for _, sub := range fam.SubFamily {
			subLvl := subfamilyLevel(sub)
			for _, dev := range sub.Device {
				addDevice(ctx, devices, scopeChain{famLvl, subLvl, deviceLevel(dev)}, dev.Dname, pdscURL, packURL)
			}
		}
	}

	aliases := map[string]cpcache.AliasRecord{}
	for _, b := range doc.Boards.Board {
		if b.Name == "" {
			continue
		}
		var mounted []string
		for _, md := range b.MountedDevice {
			if md.Dname != "" {
				mounted = append(mounted, md.Dname)
			}
		}
		if len(mounted) == 0 {
			continue
		}
		aliases[b.Name] = cpcache.AliasRecord{MountedDevices: mounted}
	}

	return devices, aliases
}

func addDevice(ctx context.Context, out map[string]cpcache.DeviceRecord, chain scopeChain, name, pdscURL, packURL string) {
	if name == "" {
		zlog.Error(ctx).Msg("device element missing Dname, skipping")
		return
	}

	rec := cpcache.DeviceRecord{
		PdscFile:  pdscURL,
		PackFile:  packURL,
		Memory:    chain.mergeMemory(),
		Algorithm: chain.mergeAlgorithm(),
		Debug:     chain.pickDebug(),
		Core:      chain.pickCore(),
		Vendor:    chain.pickVendor(),
		Family:    chain.pickFamily(),
		SubFamily: chain.pickSubFamily(),
	}
	if cp := chain.mergeCompile(); !cp.IsZero() {
		rec.Compile = &cp
	}
	if p := chain.mergeProcessor(); !p.IsZero() {
		rec.Processor = &p
	}

	out[name] = rec
}
