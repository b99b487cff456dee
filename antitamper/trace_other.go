//go:build !linux && !darwin

package antitamper

// detect has no kernel query to make on this platform.
func (p TraceProbe) detect() bool {
	if p.SelfTrace != nil {
		return judgeSelfTrace(p.SelfTrace())
	}
	return false
}
