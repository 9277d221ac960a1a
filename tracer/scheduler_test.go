package tracer

import (
	"testing"
	"time"
)

func mockTracers(speeds ...uint32) []Tracer {
	tracers := make([]Tracer, len(speeds))
	for idx, speed := range speeds {
		tracers[idx] = &mockTracer{speed: speed, stats: &Stats{}}
	}
	return tracers
}

func assertAssignment(t *testing.T, index int, exp, got []uint32) {
	t.Helper()
	if len(got) != len(exp) {
		t.Fatalf("[spec %d] expected %d assignments; got %d", index, len(exp), len(got))
	}
	for idx := range exp {
		if got[idx] != exp[idx] {
			t.Fatalf("[spec %d] expected block assignment %v; got %v", index, exp, got)
		}
	}
}

func TestNaiveScheduler(t *testing.T) {
	type spec struct {
		speeds []uint32
		frameH uint32
		exp    []uint32
	}
	specs := []spec{
		{[]uint32{1, 2}, 10, []uint32{4, 6}},
		{[]uint32{2, 1}, 10, []uint32{7, 3}},
		{[]uint32{1, 1000}, 10, []uint32{1, 9}},
		{[]uint32{1, 1, 2}, 16, []uint32{4, 4, 8}},
		// More tracers than rows; the surplus minimum rows get trimmed
		{[]uint32{1, 1, 1}, 2, []uint32{0, 1, 1}},
	}

	for index, s := range specs {
		got := NaiveScheduler().Schedule(mockTracers(s.speeds...), s.frameH)
		assertAssignment(t, index, s.exp, got)
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		renderTimes []time.Duration
		exp         []uint32
	}
	specs := []spec{
		// No feedback yet; rows are split by speed
		{nil, []uint32{5, 5}},
		// Tracer 0 finished its block 5 times faster
		{[]time.Duration{1, 5}, []uint32{9, 1}},
		// Tracer 1 processed its single row faster than tracer 0
		{[]time.Duration{5, 1}, []uint32{7, 3}},
		// Missing render time falls back to the speed estimates
		{[]time.Duration{5, 0}, []uint32{5, 5}},
	}

	tracers := mockTracers(1, 1)
	sch := PerfectScheduler()
	var prev []uint32
	for index, s := range specs {
		for idx, renderTime := range s.renderTimes {
			stats := tracers[idx].Stats()
			stats.BlockH = prev[idx]
			stats.RenderTime = renderTime
		}

		got := sch.Schedule(tracers, 10)
		assertAssignment(t, index, s.exp, got)
		prev = append(prev[:0], got...)
	}
}

type mockTracer struct {
	speed uint32
	stats *Stats
}

func (mt *mockTracer) Id() string                         { return "mock" }
func (mt *mockTracer) Speed() uint32                      { return mt.speed }
func (mt *mockTracer) Init() error                        { return nil }
func (mt *mockTracer) Close()                             {}
func (mt *mockTracer) Enqueue(_ BlockRequest)             {}
func (mt *mockTracer) Update(_ UpdateType, _ interface{}) {}
func (mt *mockTracer) Stats() *Stats                      { return mt.stats }
