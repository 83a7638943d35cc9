package urdf

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrNoModelInformation is returned when a description is empty.
	ErrNoModelInformation = errors.New("no model information")
	// ErrMissingInertia is returned when a link moved by a non-fixed joint has no inertial data.
	ErrMissingInertia = errors.New("spatial inertia information missing")
	// ErrUnsupportedJointConfiguration is returned for joint types, axes or connections the model
	// cannot represent.
	ErrUnsupportedJointConfiguration = errors.New("unsupported joint configuration")
	// ErrGeometryResolution is returned when collision geometry cannot be built.
	ErrGeometryResolution = errors.New("geometry resolution failed")
)

// NewUnsupportedJointTypeError is used when a joint type has no model counterpart.
func NewUnsupportedJointTypeError(jointName, jointType string) error {
	return errors.Wrapf(ErrUnsupportedJointConfiguration, "joint %q: type %q", jointName, jointType)
}

// NewJointInformationMissingError is used when a non-root link has no connecting joint.
func NewJointInformationMissingError(linkName string) error {
	return errors.Wrapf(ErrUnsupportedJointConfiguration, "link %q: joint information missing", linkName)
}

// NewMissingInertiaError names the link lacking inertial data.
func NewMissingInertiaError(linkName string) error {
	return errors.Wrapf(ErrMissingInertia, "link %q", linkName)
}

// NewGeometryResolutionError reports a shape that could not be built. Both ErrGeometryResolution and
// cause match errors.Is on the result.
func NewGeometryResolutionError(subject string, cause error) error {
	if errors.Is(cause, ErrGeometryResolution) {
		return errors.Wrap(cause, subject)
	}
	return multierr.Combine(errors.Wrap(ErrGeometryResolution, subject), cause)
}
