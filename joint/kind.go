// Package joint implements the kinematics of every supported joint kind and a dispatcher that
// runs them uniformly over a heterogeneous collection of joints.
//
// A joint is split in two halves: Model holds the immutable description (kind, axis, indexes into
// the global configuration and velocity vectors) and Data holds the working state refilled during
// every tree sweep (placement, velocity, motion subspace, bias and the articulated-body terms).
// Both are generic over the scalar so the same joints serve plain doubles and dual numbers.
package joint

import (
	"fmt"

	"github.com/pkg/errors"
)

// Type enumerates the closed set of joint kinds.
type Type int

// The joint kinds.
const (
	RevoluteX Type = iota
	RevoluteY
	RevoluteZ
	RevoluteUnaligned
	PrismaticX
	PrismaticY
	PrismaticZ
	Fixed
	FreeFlyer
	Composite
)

var typeNames = map[Type]string{
	RevoluteX:         "revolute_x",
	RevoluteY:         "revolute_y",
	RevoluteZ:         "revolute_z",
	RevoluteUnaligned: "revolute_unaligned",
	PrismaticX:        "prismatic_x",
	PrismaticY:        "prismatic_y",
	PrismaticZ:        "prismatic_z",
	Fixed:             "fixed",
	FreeFlyer:         "free_flyer",
	Composite:         "composite",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

var (
	// ErrSingularArticulatedInertia is returned by CalcAba when Sᵗ·I·S + armature cannot be inverted.
	ErrSingularArticulatedInertia = errors.New("articulated inertia is singular")
	// ErrUnsupportedAffineTransform is returned by ConfigVectorAffineTransform for joint kinds whose
	// configuration space is not a vector space.
	ErrUnsupportedAffineTransform = errors.New("joint does not support affine configuration transforms")
)

// Op selects how ApplyConstraintOnForce combines its result with the destination.
type Op int

// The combination operators.
const (
	Assign Op = iota
	Add
	Rm
)

// Blank stands in for the configuration vector when only velocities are to be refreshed.
type Blank struct{}
