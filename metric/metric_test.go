package metric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRecorder struct {
	counters  map[string]int64
	durations map[string][]time.Duration
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{counters: map[string]int64{}, durations: map[string][]time.Duration{}}
}

func (f *fakeRecorder) IncrCounter(name string, delta int64) { f.counters[name] += delta }
func (f *fakeRecorder) ObserveDuration(name string, d time.Duration) {
	f.durations[name] = append(f.durations[name], d)
}

func TestIncrCounterNoopWithoutRecorder(t *testing.T) {
	reset()
	assert.NotPanics(t, func() { IncrCounter(CounterSecretDecryptFailure, 1) })
}

func TestRegisterAndIncrCounter(t *testing.T) {
	reset()
	defer reset()
	fr := newFakeRecorder()
	Register(fr)

	IncrCounter(CounterSecretDecryptFailure, 1)
	IncrCounter(CounterSecretDecryptFailure, 2)

	assert.EqualValues(t, 3, fr.counters[CounterSecretDecryptFailure])
}

func TestRegisterTwicePanics(t *testing.T) {
	reset()
	defer reset()
	Register(newFakeRecorder())
	assert.Panics(t, func() { Register(newFakeRecorder()) })
}

func TestSpanRecordsDurationOnce(t *testing.T) {
	reset()
	defer reset()
	fr := newFakeRecorder()
	Register(fr)

	s := NewSpan(DurationProviderHydrate)
	s.End()
	s.End() // second call must be a no-op

	assert.Len(t, fr.durations[DurationProviderHydrate], 1)
}
