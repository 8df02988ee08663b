// Package metrics holds the backend-neutral instruments the core packages
// report through. Adapters (see adapters/prometheus) provide real
// implementations; the nop variants keep instrumentation optional.
package metrics

// Timer measures one operation. Create it when the operation starts and call
// ObserveDuration when it ends:
//
//	defer m.TickDuration().ObserveDuration()
type Timer interface {
	ObserveDuration()
}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopTimer returns a Timer that records nothing.
func NopTimer() Timer { return nopTimer{} }
