// Package wiring loads the wiring manifest, the declarative list of
// event channels with their producer/consumer roles and lifecycle, and
// the deferred-plugins manifest. Both are validated against embedded
// JSON Schemas before use; the conformance gate consumes them to prove
// the source wiring matches the declaration.
package wiring

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

// Channel roles.
const (
	RoleMandatory      = "mandatory"
	RoleExtensionPoint = "extension_point"
)

// Channel lifecycles.
const (
	LifecyclePersistent = "persistent"
	LifecycleOneshot    = "oneshot"
)

// Channel declares one event channel's wiring contract. Producers and
// consumers name the packages expected to publish and subscribe; a
// mandatory channel must have at least one of each in source.
type Channel struct {
	Role      string   `json:"role"`
	Lifecycle string   `json:"lifecycle"`
	Producers []string `json:"producers"`
	Consumers []string `json:"consumers"`
}

// Manifest is the parsed wiring manifest.
type Manifest struct {
	Channels map[string]Channel `json:"channels"`
}

// ChannelNames returns the declared channel names, sorted for stable
// reporting.
func (m *Manifest) ChannelNames() []string {
	names := make([]string, 0, len(m.Channels))
	for name := range m.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsOneshot reports whether a channel is declared oneshot. Undeclared
// channels are not oneshot.
func (m *Manifest) IsOneshot(name string) bool {
	ch, ok := m.Channels[name]
	return ok && ch.Lifecycle == LifecycleOneshot
}

// Deferred is the deferred-plugins manifest: plugin type name → the
// reason it is intentionally absent from the bootstrap registration.
type Deferred map[string]string

// LoadManifest reads, schema-validates and parses a wiring manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wiring: read manifest: %w", err)
	}
	if err := validate(data, "schema/wiring.schema.json"); err != nil {
		return nil, fmt.Errorf("wiring: manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wiring: parse manifest: %w", err)
	}
	return &m, nil
}

// LoadDeferred reads, schema-validates and parses a deferred-plugins
// manifest. A missing file is an empty manifest: deferring nothing is
// the common case.
func LoadDeferred(path string) (Deferred, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Deferred{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wiring: read deferred manifest: %w", err)
	}
	if err := validate(data, "schema/deferred.schema.json"); err != nil {
		return nil, fmt.Errorf("wiring: deferred manifest %s: %w", path, err)
	}

	var d Deferred
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("wiring: parse deferred manifest: %w", err)
	}
	return d, nil
}

// validate checks raw JSON against one of the embedded schemas.
func validate(data []byte, schemaPath string) error {
	schemaData, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaPath, bytes.NewReader(schemaData)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
