package scene

import "planet-viewer/core"

// Material describes surface appearance properties for a mesh.
type Material struct {
	Name      string
	Albedo    core.Color // base diffuse color (multiplied with albedo texture if set)
	Specular  core.Color // Phong specular highlight color
	Shininess float32    // Phong shininess exponent
	Unlit     bool       // output raw albedo/texture color, no lighting

	// Transparent materials are drawn after opaque ones, back to front,
	// alpha blended and without depth writes. Opacity scales texture alpha.
	Transparent bool
	Opacity     float32

	// Optional albedo texture; if set, it is multiplied with Albedo.
	AlbedoTexture *Texture
}

// DefaultMaterial returns a plain white matte Phong material.
func DefaultMaterial() *Material {
	return NewMaterial("Default", core.ColorWhite)
}

// NewMaterial creates an opaque Phong material with the given albedo color.
func NewMaterial(name string, albedo core.Color) *Material {
	return &Material{
		Name:      name,
		Albedo:    albedo,
		Specular:  core.Color{R: 0.3, G: 0.3, B: 0.3, A: 1},
		Shininess: 32,
		Opacity:   1,
	}
}
