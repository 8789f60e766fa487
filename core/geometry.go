package core

import "math"

// Vec3 is a point or displacement in the world frame, metres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Quat is a unit quaternion representing an orientation (rotation from
// the body frame to the world frame).
type Quat struct {
	W, X, Y, Z float64
}

// IdentityQuat returns the no-rotation orientation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromYawPitchRoll builds an orientation from intrinsic Z-Y-X Euler
// angles in radians (yaw about Z, then pitch about Y, then roll about X).
func QuatFromYawPitchRoll(yaw, pitch, roll float64) Quat {
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)

	return Quat{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) Vec3 {
	// q * (0,v) * q⁻¹ expanded via the double-cross-product form:
	// v' = v + 2w(u×v) + 2(u×(u×v)), u = (X,Y,Z).
	ux, uy, uz := q.X, q.Y, q.Z

	cx := uy*v.Z - uz*v.Y
	cy := uz*v.X - ux*v.Z
	cz := ux*v.Y - uy*v.X

	ccx := uy*cz - uz*cy
	ccy := uz*cx - ux*cz
	ccz := ux*cy - uy*cx

	return Vec3{
		X: v.X + 2*(q.W*cx+ccx),
		Y: v.Y + 2*(q.W*cy+ccy),
		Z: v.Z + 2*(q.W*cz+ccz),
	}
}

// Pose is a rigid-body pose in the world frame.
type Pose struct {
	Position    Vec3
	Orientation Quat
}

// ToLocal transforms a world-frame point into the pose's body frame:
// translate by -Position, then rotate by the inverse orientation.
func (p Pose) ToLocal(world Vec3) Vec3 {
	return p.Orientation.Conjugate().Rotate(world.Sub(p.Position))
}

// FromLocal transforms a body-frame point back into the world frame.
func (p Pose) FromLocal(local Vec3) Vec3 {
	return p.Orientation.Rotate(local).Add(p.Position)
}

// Spherical converts a body-frame displacement into range (metres),
// bearing, and elevation (radians). Bearing is the heading angle in the
// body's horizontal plane, elevation the angle above or below it. A
// zero displacement yields zero angles via the atan2(0, 0) convention.
func Spherical(local Vec3) (rng, bearing, elevation float64) {
	rng = local.Norm()
	bearing = math.Atan2(local.Y, local.X)
	elevation = math.Atan2(local.Z, math.Hypot(local.X, local.Y))
	return rng, bearing, elevation
}
