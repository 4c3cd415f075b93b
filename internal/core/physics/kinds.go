package physics

// ShapeKind identifies the collision geometry of an actor.
type ShapeKind uint8

const (
	ShapePlane ShapeKind = iota
	ShapeHeightField
	ShapeBox
	ShapeSphere
	ShapeCapsule
	ShapeMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePlane:
		return "plane"
	case ShapeHeightField:
		return "heightfield"
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	case ShapeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Mobility is how an actor is allowed to move.
type Mobility uint8

const (
	// Static actors never move once added.
	Static Mobility = iota
	// Kinematic actors are driven by pose writes and ignore forces.
	Kinematic
	// Dynamic actors are integrated under gravity and applied forces.
	Dynamic
)

func (m Mobility) String() string {
	switch m {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Movable reports whether the actor is backed by a rigid body.
func (m Mobility) Movable() bool { return m == Kinematic || m == Dynamic }
