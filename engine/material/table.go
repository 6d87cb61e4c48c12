package material

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// NullProperty marks a binding that should not be read from the host material.
const NullProperty = "null"

// ErrShaderNotMapped is returned when a followed host material uses a shader the table has no rule for.
var ErrShaderNotMapped = errors.New("material: shader not mapped")

// BindingRule describes how one host shader's properties map onto submesh parameters.
type BindingRule struct {
	// ShaderName is the host shader this rule applies to.
	ShaderName string `yaml:"name" toml:"name"`

	// BaseColorValue is the color property copied into BaseColor, or NullProperty.
	BaseColorValue string `yaml:"baseColor" toml:"baseColor"`

	// MetallicRange is the float property copied into Metallic, or NullProperty.
	MetallicRange string `yaml:"metallic" toml:"metallic"`

	// RoughnessRange is the float property copied into Roughness, or NullProperty.
	RoughnessRange string `yaml:"roughness" toml:"roughness"`

	// IsGlass forces full specular transmission on every follower.
	IsGlass bool `yaml:"isGlass" toml:"isGlass"`

	// IsCutout forces the Cutout material type on every follower.
	IsCutout bool `yaml:"isCutout" toml:"isCutout"`
}

// DefaultRules returns the rule set used when no mapping file exists.
//
// Returns:
//   - []BindingRule: rules for the host's built-in shaders
func DefaultRules() []BindingRule {
	return []BindingRule{
		{ShaderName: FallbackShaderName, BaseColorValue: "_Color", MetallicRange: "_Metallic", RoughnessRange: NullProperty},
		{ShaderName: "Standard (Specular setup)", BaseColorValue: "_Color", MetallicRange: NullProperty, RoughnessRange: NullProperty},
	}
}

type table struct {
	mu      sync.RWMutex
	rules   map[string]BindingRule
	version uint64
}

// Table maps host shader names to binding rules. It is the opaque material
// mapping the registries apply on record creation and on follow sync.
// Safe for concurrent use.
type Table interface {
	// Rule looks up the binding rule for a shader.
	//
	// Parameters:
	//   - shaderName: the host shader name
	//
	// Returns:
	//   - BindingRule: the rule
	//   - bool: false if the shader is not mapped
	Rule(shaderName string) (BindingRule, bool)

	// SetRule adds or replaces the rule for rule.ShaderName and bumps the version.
	//
	// Parameters:
	//   - rule: the rule to store
	SetRule(rule BindingRule)

	// RemoveRule deletes the rule for a shader and bumps the version if it existed.
	//
	// Parameters:
	//   - shaderName: the host shader name
	RemoveRule(shaderName string)

	// Replace swaps the full rule set atomically and bumps the version.
	//
	// Parameters:
	//   - rules: the new rule set
	Replace(rules []BindingRule)

	// Rules returns every rule sorted by shader name.
	//
	// Returns:
	//   - []BindingRule: a copy of the rule set
	Rules() []BindingRule

	// Version returns a counter that changes every time the rule set changes.
	//
	// Returns:
	//   - uint64: the current version
	Version() uint64

	// Sync copies the host material's bound properties into sm according to the
	// rule for the host's shader. sm is left untouched when the shader is not mapped.
	//
	// Parameters:
	//   - host: the host material the submesh follows
	//   - sm: the submesh parameters to update
	//
	// Returns:
	//   - error: ErrShaderNotMapped if no rule exists for the host's shader
	Sync(host HostMaterial, sm *SubmeshMaterial) error
}

var _ Table = &table{}

// NewTable creates a Table holding the given rules.
//
// Parameters:
//   - rules: the initial rule set
//
// Returns:
//   - Table: the new table
func NewTable(rules ...BindingRule) Table {
	t := &table{rules: make(map[string]BindingRule, len(rules))}
	for _, r := range rules {
		t.rules[r.ShaderName] = r
	}
	return t
}

func (t *table) Rule(shaderName string) (BindingRule, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rules[shaderName]
	return r, ok
}

func (t *table) SetRule(rule BindingRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[rule.ShaderName] = rule
	t.version++
}

func (t *table) RemoveRule(shaderName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rules[shaderName]; ok {
		delete(t.rules, shaderName)
		t.version++
	}
}

func (t *table) Replace(rules []BindingRule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = make(map[string]BindingRule, len(rules))
	for _, r := range rules {
		t.rules[r.ShaderName] = r
	}
	t.version++
}

func (t *table) Rules() []BindingRule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]BindingRule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShaderName < out[j].ShaderName })
	return out
}

func (t *table) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

func (t *table) Sync(host HostMaterial, sm *SubmeshMaterial) error {
	shader := ResolveShaderName(host)
	rule, ok := t.Rule(shader)
	if !ok {
		return fmt.Errorf("%w: %q (material %q)", ErrShaderNotMapped, shader, host.Name())
	}
	rule.apply(host, sm)
	return nil
}

// apply copies bound properties. An unbound or missing base color resets to white.
func (r BindingRule) apply(host HostMaterial, sm *SubmeshMaterial) {
	if bound(r.MetallicRange) {
		if v, ok := host.Float(r.MetallicRange); ok {
			sm.Metallic = v
		}
	}
	if bound(r.RoughnessRange) {
		if v, ok := host.Float(r.RoughnessRange); ok {
			sm.Roughness = v
		}
	}
	sm.BaseColor = [3]float32{1, 1, 1}
	if bound(r.BaseColorValue) {
		if c, ok := host.Color(r.BaseColorValue); ok {
			sm.BaseColor = [3]float32{c[0], c[1], c[2]}
		}
	}
	if r.IsGlass {
		sm.SpecTrans = 1
	}
	if r.IsCutout {
		sm.Type = MaterialTypeCutout
	}
}

func bound(property string) bool {
	return property != "" && property != NullProperty
}

// Equal reports whether two rule sets hold the same rules regardless of order.
func Equal(a, b []BindingRule) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	less := func(x, y BindingRule) int {
		switch {
		case x.ShaderName < y.ShaderName:
			return -1
		case x.ShaderName > y.ShaderName:
			return 1
		}
		return 0
	}
	slices.SortFunc(as, less)
	slices.SortFunc(bs, less)
	return slices.Equal(as, bs)
}
