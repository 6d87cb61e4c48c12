package material

// ErrorShaderName is the name the host reports for a material whose shader failed to compile.
const ErrorShaderName = "Hidden/InternalErrorShader"

// FallbackShaderName is the shader substituted for ErrorShaderName.
const FallbackShaderName = "Standard"

// HostMaterial is the read-only view of an external material asset that a
// record's submesh may follow. Implementations are owned by the host scene graph.
type HostMaterial interface {
	// Name returns the material asset's display name.
	Name() string

	// ShaderName returns the name of the shader the material uses.
	ShaderName() string

	// Float reads a float shader property.
	//
	// Parameters:
	//   - property: the shader property name
	//
	// Returns:
	//   - float32: the value
	//   - bool: false if the property does not exist
	Float(property string) (float32, bool)

	// Color reads an RGBA color shader property.
	//
	// Parameters:
	//   - property: the shader property name
	//
	// Returns:
	//   - [4]float32: the RGBA value
	//   - bool: false if the property does not exist
	Color(property string) ([4]float32, bool)
}

// ResolveShaderName returns the shader name used for table lookups, replacing the
// host's error shader with FallbackShaderName.
func ResolveShaderName(h HostMaterial) string {
	name := h.ShaderName()
	if name == ErrorShaderName {
		return FallbackShaderName
	}
	return name
}

// StaticHostMaterial is a plain in-memory HostMaterial. It is what the CLI demo and
// tests hand to records; real hosts usually wrap their own asset type instead.
type StaticHostMaterial struct {
	MaterialName string
	Shader       string
	Floats       map[string]float32
	Colors       map[string][4]float32
}

var _ HostMaterial = &StaticHostMaterial{}

func (m *StaticHostMaterial) Name() string       { return m.MaterialName }
func (m *StaticHostMaterial) ShaderName() string { return m.Shader }

func (m *StaticHostMaterial) Float(property string) (float32, bool) {
	v, ok := m.Floats[property]
	return v, ok
}

func (m *StaticHostMaterial) Color(property string) ([4]float32, bool) {
	v, ok := m.Colors[property]
	return v, ok
}
