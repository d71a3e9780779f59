package conformance

import (
	"fmt"
	"strings"
)

// checkCapabilityLeaks verifies that only the allow-listed packages
// import the host model directly. Everything else reaches the platform
// through capabilities resolved from the PAL, so plugins stay portable
// across hosts.
func (g *Gate) checkCapabilityLeaks(tree *sourceTree) []Violation {
	var out []Violation
	for _, sf := range tree.files {
		if sf.dir == g.CapabilityPackage || underAny(sf.dir, g.CapabilityAllow) {
			continue
		}
		for _, path := range importPaths(sf.file) {
			if !strings.HasSuffix(path, g.CapabilityPackage) {
				continue
			}
			out = append(out, Violation{
				Check:   CheckCapabilityLeaks,
				File:    sf.path,
				Message: fmt.Sprintf("imports %s outside the capability allow-list", path),
			})
		}
	}
	return out
}
