package ylscene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position/rotation/scale triple. Scale is applied first,
// then rotation, then translation (M = T * R * S).
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// Apply maps a point from object space into the space t is expressed in.
func (t Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(mulVec3(t.Scale, p)))
}

// Compose places child (expressed relative to parent) into parent's space.
// The parent rotation is the left operand:
//
//	WorldPos   = ParentPos + ParentRot * (ParentScale * LocalPos)
//	WorldRot   = ParentRot * LocalRot
//	WorldScale = ParentScale * LocalScale
//
// No normalization happens here; callers pass unit rotations.
func Compose(parent, child Transform) Transform {
	return Transform{
		Position: parent.Apply(child.Position),
		Rotation: parent.Rotation.Mul(child.Rotation),
		Scale:    mulVec3(parent.Scale, child.Scale),
	}
}

// Reparent re-expresses an absolute child transform relative to an absolute
// parent transform. It is the inverse of Compose: Compose(parent,
// Reparent(parent, child)) == child. With a unit parent scale the position is
// exactly ParentRot^-1 * (ChildPos - ParentPos).
func Reparent(parent, child Transform) Transform {
	inv := parent.Rotation.Inverse()
	return Transform{
		Position: divVec3(inv.Rotate(child.Position.Sub(parent.Position)), parent.Scale),
		Rotation: inv.Mul(child.Rotation),
		Scale:    divVec3(child.Scale, parent.Scale),
	}
}

// AxisCorrect converts a source-document position and Euler rotation (degrees)
// into engine placement. Z is mirrored for the position; X and Y rotations are
// negated and Z is kept. The Euler triple is applied in YXZ order
// (Q = Qy * Qx * Qz).
//
// Call this exactly once per node, when its source floats are first read.
// Applying it again during composition double-inverts rotations.
func AxisCorrect(pos, rotDeg [3]float32) (mgl32.Vec3, mgl32.Quat) {
	p := mgl32.Vec3{pos[0], pos[1], -pos[2]}
	q := EulerYXZ(-rotDeg[0], -rotDeg[1], rotDeg[2])
	return p, q
}

// EulerYXZ builds a rotation from Euler angles in degrees, composed Y, then X,
// then Z. All-zero input returns the identity quaternion.
func EulerYXZ(xDeg, yDeg, zDeg float32) mgl32.Quat {
	if xDeg == 0 && yDeg == 0 && zDeg == 0 {
		return mgl32.QuatIdent()
	}
	qy := mgl32.QuatRotate(mgl32.DegToRad(yDeg), mgl32.Vec3{0, 1, 0})
	qx := mgl32.QuatRotate(mgl32.DegToRad(xDeg), mgl32.Vec3{1, 0, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(zDeg), mgl32.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

// divVec3 divides component-wise; a zero divisor yields zero for that axis.
func divVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		if b[i] != 0 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}
