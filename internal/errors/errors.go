// Package errors defines the error taxonomy of the conversion pipeline and
// re-exports the wrapping helpers used throughout the module.
//
// Every failure surfaced by the core belongs to exactly one of the sentinel
// classes below. Callers test membership with [Is]:
//
//	if errors.Is(err, errors.ErrParse) {
//	    // malformed or truncated input bytes
//	}
//
// Sentinels are attached with [Wrap]/[Wrapf] so the class survives any further
// wrapping and the message keeps the failing joint, vertex, or file.
package errors

import "github.com/cockroachdb/errors"

// Sentinel errors for the conversion error classes.
var (
	// ErrParse indicates malformed or truncated input bytes.
	ErrParse = errors.New("malformed input data")

	// ErrImport indicates a GLTF input that violates the joint-naming or
	// bind-pose conventions, or references a missing skin.
	ErrImport = errors.New("unsupported gltf input")

	// ErrStructural indicates a scene that violates a structural invariant.
	ErrStructural = errors.New("invalid scene structure")

	// ErrEncode indicates a scene that cannot be serialized to the target
	// format.
	ErrEncode = errors.New("scene cannot be encoded")

	// ErrConsistency indicates input files that do not describe one coherent
	// model.
	ErrConsistency = errors.New("inconsistent input files")

	// ErrIO indicates a filesystem failure.
	ErrIO = errors.New("io failure")
)

// New creates an error with the given message.
func New(msg string) error { return errors.New(msg) }

// Newf creates an error from a format specifier.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// Wrap annotates err with a message, preserving its identity for Is checks.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message, preserving its identity.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Mark attaches reference as an additional identity of err.
func Mark(err, reference error) error {
	if err == nil {
		return nil
	}
	return &marked{cause: errors.Mark(err, reference), reference: reference}
}

// marked exposes the attached reference to the standard library's errors.Is,
// which does not traverse cockroachdb marks.
type marked struct {
	cause     error
	reference error
}

func (m *marked) Error() string        { return m.cause.Error() }
func (m *marked) Unwrap() error        { return m.cause }
func (m *marked) Is(target error) bool { return target == m.reference }
