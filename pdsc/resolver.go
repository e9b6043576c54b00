package pdsc

import (
	"errors"
	"strings"

	"github.com/cmsispack/cpcache/internal/loosever"
)

// ErrNotConforming is returned by ResolvePackURL when a PDSC is missing one
// of the four fields a pack URL requires: url, vendor, name, or a release.
var ErrNotConforming = errors.New("pdsc: not a conforming PDSC")

// ResolvePackURL computes a device's PACK archive URL from its owning PDSC:
// "<url><vendor>.<name>.<largest_version>.pack", with url normalized to end
// in a slash.
func ResolvePackURL(doc *Document) (string, error) {
	if doc.URL == "" || doc.Vendor == "" || doc.Name == "" || len(doc.Releases.Release) == 0 {
		return "", ErrNotConforming
	}

	versions := make([]string, 0, len(doc.Releases.Release))
	for _, r := range doc.Releases.Release {
		if r.Version != "" {
			versions = append(versions, r.Version)
		}
	}
	if len(versions) == 0 {
		return "", ErrNotConforming
	}

	url := doc.URL
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	version := loosever.Largest(versions)
	return url + doc.Vendor + "." + doc.Name + "." + version + ".pack", nil
}
