// Package conformance statically checks the source tree against the
// wiring manifest. It proves four properties: every channel used in
// code is declared and every mandatory channel is wired on both ends
// (no ghost channels), only sanctioned packages touch the host model
// directly (no capability leaks), every plugin type is registered or
// deliberately deferred (no orphaned plugins), and every persistent
// subscription taken during plugin startup is released during teardown
// (no zombie listeners).
//
// The checks run over go/ast. They are syntactic, not type-checked:
// precise enough for this tree's conventions, with no build step
// required.
package conformance

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayusman/sparsh/internal/wiring"
)

// Check names, used to group violations in reports.
const (
	CheckGhostChannels   = "ghost-channels"
	CheckCapabilityLeaks = "capability-leaks"
	CheckOrphanedPlugins = "orphaned-plugins"
	CheckZombieListeners = "zombie-listeners"
)

// Violation is one conformance failure at a source location.
type Violation struct {
	Check   string
	File    string
	Message string
}

func (v Violation) String() string {
	if v.File == "" {
		return fmt.Sprintf("%s: %s", v.Check, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Check, v.File, v.Message)
}

// Gate runs the conformance checks over one source tree.
type Gate struct {
	// Root is the tree to check.
	Root string

	// ManifestPath and DeferredPath locate the wiring manifests,
	// relative to Root unless absolute.
	ManifestPath string
	DeferredPath string

	// CapabilityAllow lists the directory prefixes (relative,
	// slash-separated) permitted to import the host package. The host
	// package itself is always allowed.
	CapabilityAllow []string

	// CapabilityPackage is the import path suffix identifying the host
	// package.
	CapabilityPackage string
}

// New returns a Gate with this repository's conventions.
func New(root string) *Gate {
	return &Gate{
		Root:              root,
		ManifestPath:      "wiring.json",
		DeferredPath:      "deferred.json",
		CapabilityAllow:   []string{"internal/server", "cmd"},
		CapabilityPackage: "internal/host",
	}
}

// Run executes all checks and returns the violations found. A non-nil
// error means the gate itself could not run (unparseable source,
// unreadable manifest); violations alone never produce an error.
func (g *Gate) Run() ([]Violation, error) {
	manifest, err := wiring.LoadManifest(g.resolve(g.ManifestPath))
	if err != nil {
		return nil, err
	}
	deferred, err := wiring.LoadDeferred(g.resolve(g.DeferredPath))
	if err != nil {
		return nil, err
	}
	tree, err := loadTree(g.Root)
	if err != nil {
		return nil, err
	}

	var out []Violation
	out = append(out, g.checkGhostChannels(tree, manifest)...)
	out = append(out, g.checkCapabilityLeaks(tree)...)
	out = append(out, g.checkOrphanedPlugins(tree, deferred)...)
	out = append(out, g.checkZombieListeners(tree, manifest)...)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Check != out[j].Check {
			return out[i].Check < out[j].Check
		}
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Message < out[j].Message
	})
	return out, nil
}

func (g *Gate) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.Root, path)
}

// underAny reports whether a relative dir sits at or below one of the
// given prefixes.
func underAny(dir string, prefixes []string) bool {
	for _, p := range prefixes {
		if dir == p || strings.HasPrefix(dir, p+"/") {
			return true
		}
	}
	return false
}
