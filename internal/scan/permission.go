package scan

import "context"

// Permission is the answer of the device permission provider.
type Permission int

const (
	Denied Permission = iota
	Granted
)

// PermissionProvider asks for camera access. Implementations decide
// whether to prompt, cache, or answer from configuration.
type PermissionProvider interface {
	Request(ctx context.Context) Permission
}

// Fixed always answers with the same Permission.
type Fixed Permission

func (f Fixed) Request(context.Context) Permission { return Permission(f) }

// AlwaysGranted is used when the capture source needs no permission, such
// as barcodes piped on stdin.
const AlwaysGranted = Fixed(Granted)
