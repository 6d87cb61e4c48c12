package material

// MaterialType selects the shading model a submesh is rendered with.
type MaterialType int

const (
	// MaterialTypeDiffuse is a pure Lambertian surface.
	MaterialTypeDiffuse MaterialType = iota
	// MaterialTypeDisney is the full principled BSDF. This is the default.
	MaterialTypeDisney
	// MaterialTypeCutout is alpha-tested geometry.
	MaterialTypeCutout
	// MaterialTypeVolumetric is a participating medium bounded by the mesh.
	MaterialTypeVolumetric
	// MaterialTypeVideo samples an externally updated texture as emission.
	MaterialTypeVideo
)

var materialTypeNames = [...]string{"Diffuse", "Disney", "Cutout", "Volumetric", "Video"}

// String returns the display name of the material type.
func (t MaterialType) String() string {
	if t < 0 || int(t) >= len(materialTypeNames) {
		return "Unknown"
	}
	return materialTypeNames[t]
}

// SubmeshMaterial holds every shading parameter of one submesh. A record keeps
// exactly one SubmeshMaterial per submesh, so all parameters always have the same length.
type SubmeshMaterial struct {
	// Name is the host material name the submesh was created from.
	Name string

	// Type selects the shading model.
	Type MaterialType

	// BaseColor is the linear RGB albedo.
	BaseColor [3]float32

	// Emission scales EmissionColor.
	Emission float32

	// EmissionColor is the linear RGB emitted color.
	EmissionColor [3]float32

	Roughness      float32
	Metallic       float32
	IOR            float32
	Specular       float32
	SpecularTint   float32
	Sheen          float32
	SheenTint      float32
	ClearCoat      float32
	ClearCoatGloss float32
	Anisotropic    float32
	Flatness       float32

	// DiffTrans is the diffuse transmission weight.
	DiffTrans float32

	// SpecTrans is the specular transmission weight; glass is 1.
	SpecTrans float32

	// TransmissionColor tints transmitted light.
	TransmissionColor [3]float32

	// Thin marks thin-walled geometry (non-zero = thin).
	Thin int32

	// ScatterDist is the subsurface scattering distance.
	ScatterDist float32

	// FollowMaterial mirrors the host material's properties through the
	// material table instead of using independently authored values.
	FollowMaterial bool
}

// DefaultSubmeshMaterial returns the parameters a freshly created submesh starts with:
// Disney shading, white base color, IOR 1 and FollowMaterial enabled.
//
// Parameters:
//   - name: the host material name
//
// Returns:
//   - SubmeshMaterial: the default parameters
func DefaultSubmeshMaterial(name string) SubmeshMaterial {
	return SubmeshMaterial{
		Name:           name,
		Type:           MaterialTypeDisney,
		BaseColor:      [3]float32{1, 1, 1},
		IOR:            1,
		FollowMaterial: true,
	}
}
