// Package guard detects values that bypassed their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in commands, queries and value objects that must only
// be built through their New... function. The zero value reports itself as not constructed,
// so a literal `SomeCommand{}` fails validation before a handler acts on it.
//
// Example:
//
//	type ReconcileVendorSignalCommand struct {
//	    vendorID kernel.VendorID
//	    guard    guard.ConstructorGuard
//	}
//
//	func (c ReconcileVendorSignalCommand) Validate() error {
//	    return c.guard.Validate(ErrReconcileVendorSignalCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard marks the enclosing value as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when nil) for a zero-value
// guard and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
