package scene

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// NewBoxScene builds the default interior test scene: a box assembled from
// large spheres, a ceiling disc light, and three feature spheres (glass,
// mirror, diffuse). Dimensions are chosen so a camera at the origin looking
// down -Z sees the whole box. The box is open behind the camera so escaped
// rays can reach the environment light.
func NewBoxScene(refractiveIndex float64) *Scene {
	white := core.NewVec3(0.75, 0.75, 0.75)
	red := core.NewVec3(0.75, 0.25, 0.25)
	blue := core.NewVec3(0.25, 0.25, 0.75)

	const wallRadius = 1e4

	return &Scene{
		RefractiveIndex: refractiveIndex,
		Primitives: []Primitive{
			// Walls: huge spheres approximate planes with no special casing
			NewSphere(core.NewVec3(-wallRadius-8, 0, 0), wallRadius, Material{Kind: Diffuse, Albedo: red}),    // left
			NewSphere(core.NewVec3(wallRadius+8, 0, 0), wallRadius, Material{Kind: Diffuse, Albedo: blue}),    // right
			NewSphere(core.NewVec3(0, -wallRadius-4, 0), wallRadius, Material{Kind: Diffuse, Albedo: white}),  // floor
			NewSphere(core.NewVec3(0, wallRadius+6, 0), wallRadius, Material{Kind: Diffuse, Albedo: white}),   // ceiling
			NewSphere(core.NewVec3(0, 0, -wallRadius-24), wallRadius, Material{Kind: Diffuse, Albedo: white}), // back

			// Ceiling light
			NewDisc(core.NewVec3(0, 5.998, -14), core.NewVec3(0, -1, 0), 2.5,
				Material{Kind: Diffuse, Emission: core.NewVec3(14, 14, 14)}),

			// Feature spheres
			NewSphere(core.NewVec3(-3.2, -2.4, -15), 1.6, Material{Kind: Refractive, Albedo: core.NewVec3(0.85, 0.95, 0.95)}),
			NewSphere(core.NewVec3(3.0, -2.6, -17), 1.4, Material{Kind: Specular, Albedo: white, Fuzz: 0.05}),
			NewSphere(core.NewVec3(0.2, -3.0, -13), 1.0, Material{Kind: Diffuse, Albedo: core.NewVec3(0.8, 0.65, 0.3)}),
		},
	}
}
