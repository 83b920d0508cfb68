// Package txguard protects a Manager's transaction callbacks against use
// after the Manager has shut down. A closed Manager panics with
// ClosedPanicMessage instead of silently running against torn-down state;
// Run and Value convert that specific panic back into a false return so
// shutdown races read as "no-op", not "crash".
//
// Adapted from the teacher's server/internal/txguard package, generalized
// away from a single concrete Tx type so it can guard any callback shape
// the game package's transaction queue uses.
package txguard

const ClosedPanicMessage = "game: use of session/manager after shutdown is not permitted"

// Run executes fn, returning false instead of panicking if fn panics with
// ClosedPanicMessage. Any other panic propagates unchanged.
func Run(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if msg, isStr := r.(string); isStr && msg == ClosedPanicMessage {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}

// Value is Run for callbacks that return a value.
func Value[T any](fn func() T) (value T, ok bool) {
	ok = Run(func() {
		value = fn()
	})
	return
}
