package event

import "gonum.org/v1/gonum/spatial/r3"

// MagneticField supplies the field vector, in Tesla, at a global point.
type MagneticField interface {
	InTesla(global r3.Vec) r3.Vec
}

// Geometry maps module-local coordinates to global ones.
type Geometry interface {
	// ToGlobal converts a local position on the module to a global point.
	ToGlobal(id DetID, local r3.Vec) (r3.Vec, bool)
	// ToGlobalVector rotates a local direction into the global frame.
	ToGlobalVector(id DetID, local r3.Vec) (r3.Vec, bool)
}

// UniformField is a constant field, the usual approximation inside a solenoid.
type UniformField struct {
	B r3.Vec
}

// InTesla implements MagneticField.
func (f UniformField) InTesla(r3.Vec) r3.Vec { return f.B }

// Placement positions one module: its local frame is rotated by Rotation
// (row-major, local to global) and then translated by Origin. A zero
// Rotation is treated as the identity.
type Placement struct {
	Origin   r3.Vec        `json:"origin"`
	Rotation [3][3]float64 `json:"rotation"`
}

// TranslationGeometry is a table of module placements.
type TranslationGeometry map[DetID]Placement

// ToGlobal implements Geometry.
func (g TranslationGeometry) ToGlobal(id DetID, local r3.Vec) (r3.Vec, bool) {
	pl, ok := g[id]
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Add(pl.Origin, pl.rotate(local)), true
}

// ToGlobalVector implements Geometry.
func (g TranslationGeometry) ToGlobalVector(id DetID, local r3.Vec) (r3.Vec, bool) {
	pl, ok := g[id]
	if !ok {
		return r3.Vec{}, false
	}
	return pl.rotate(local), true
}

func (p Placement) rotate(v r3.Vec) r3.Vec {
	if p.Rotation == ([3][3]float64{}) {
		return v
	}
	r := p.Rotation
	return r3.Vec{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}
