// Package flight holds the token that allows one outstanding network
// operation at a time. A caller that cannot take the token is refused, not
// queued.
package flight

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"
)

// ErrBusy is returned when another operation holds the token.
var ErrBusy = errors.New("another operation is in flight")

// Guard is the in-flight token. The zero value is not usable; call New.
type Guard struct {
	held *atomic.Bool
	op   *atomic.String
}

// New returns a free Guard.
func New() *Guard {
	return &Guard{held: atomic.NewBool(false), op: atomic.NewString("")}
}

// Acquire takes the token for op. The returned release func must be called
// exactly once; extra calls are no-ops.
func (g *Guard) Acquire(op string) (release func(), err error) {
	if !g.held.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s refused while %s is in flight: %w", op, g.op.Load(), ErrBusy)
	}
	g.op.Store(op)
	released := atomic.NewBool(false)
	return func() {
		if released.CompareAndSwap(false, true) {
			g.op.Store("")
			g.held.Store(false)
		}
	}, nil
}

// Busy reports whether the token is held.
func (g *Guard) Busy() bool { return g.held.Load() }

// Op names the operation holding the token, or "" when free.
func (g *Guard) Op() string { return g.op.Load() }
