package fieldtypes

import (
	"fmt"
	"sync"
)

// FieldTypePlugin defines the interface for leaf field type plugins.
// Plugins can be registered to extend the system with new field types.
// The codec consumes them as the value-side half of the "render a
// sub-field" collaborator: it never renders, it only validates, transforms
// for storage, and formats for display.
type FieldTypePlugin interface {
	// Name returns the unique identifier for this field type
	Name() string

	// Label returns the human-readable label for this field type
	Label() string

	// Description returns a description of what this field type is for
	Description() string

	// IsContent reports whether edits to this type change row content as
	// opposed to cosmetic presentation. Content edits debounce preview
	// refreshes on the shorter delay.
	IsContent() bool

	// Validate validates a value for this field type
	// Returns nil if valid, error otherwise
	Validate(value interface{}, config map[string]interface{}) error

	// Transform transforms a value before storage (optional)
	// Returns the transformed value
	Transform(value interface{}, config map[string]interface{}) (interface{}, error)

	// Format formats a stored value for display (optional)
	// Returns the formatted string
	Format(value interface{}, config map[string]interface{}) string
}

// BasePlugin provides default implementations for optional plugin methods
type BasePlugin struct {
	name        string
	label       string
	description string
	content     bool
}

// NewBasePlugin creates a new base plugin with required fields
func NewBasePlugin(name, label, description string, content bool) BasePlugin {
	return BasePlugin{
		name:        name,
		label:       label,
		description: description,
		content:     content,
	}
}

func (p BasePlugin) Name() string        { return p.name }
func (p BasePlugin) Label() string       { return p.label }
func (p BasePlugin) Description() string { return p.description }
func (p BasePlugin) IsContent() bool     { return p.content }

func (p BasePlugin) Validate(value interface{}, config map[string]interface{}) error {
	return nil // Default: no validation
}

func (p BasePlugin) Transform(value interface{}, config map[string]interface{}) (interface{}, error) {
	return value, nil // Default: no transformation
}

func (p BasePlugin) Format(value interface{}, config map[string]interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

// PluginRegistry manages registered field type plugins
type PluginRegistry struct {
	plugins map[string]FieldTypePlugin
	mu      sync.RWMutex
}

var (
	pluginRegistry     *PluginRegistry
	pluginRegistryOnce sync.Once
)

// GetPluginRegistry returns the singleton plugin registry
func GetPluginRegistry() *PluginRegistry {
	pluginRegistryOnce.Do(func() {
		pluginRegistry = &PluginRegistry{
			plugins: make(map[string]FieldTypePlugin),
		}
	})
	return pluginRegistry
}

// Register adds a plugin to the registry
func (r *PluginRegistry) Register(plugin FieldTypePlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := plugin.Name()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("field type plugin '%s' is already registered", name)
	}

	r.plugins[name] = plugin
	return nil
}

// Get retrieves a plugin by name
func (r *PluginRegistry) Get(name string) (FieldTypePlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.plugins[name]
	return plugin, ok
}

// List returns all registered plugin names
func (r *PluginRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}

// Unregister removes a plugin from the registry
func (r *PluginRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		delete(r.plugins, name)
		return true
	}
	return false
}

// Package-level convenience functions

// RegisterPlugin registers a field type plugin
func RegisterPlugin(plugin FieldTypePlugin) error {
	return GetPluginRegistry().Register(plugin)
}

// GetPlugin retrieves a field type plugin by name
func GetPlugin(name string) (FieldTypePlugin, bool) {
	return GetPluginRegistry().Get(name)
}

// ListPlugins returns all registered plugin names
func ListPlugins() []string {
	return GetPluginRegistry().List()
}
