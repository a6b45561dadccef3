package metrics

// Noop discards everything.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) AddInFlight(float64) {}
func (Noop) RecordOAuthEvent(string) {}
func (Noop) RecordMemoryOperation(string, bool) {}
