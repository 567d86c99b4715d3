package verification

import "time"

// ManualScheduler is a Scheduler driven by explicit Advance calls.
// Tests use it in place of a real timer.
type ManualScheduler struct {
	tasks []*manualTask
}

type manualTask struct {
	interval time.Duration
	elapsed  time.Duration
	run      func() bool
	stopped  bool
}

// Every registers task; it only runs when Advance is called
func (m *ManualScheduler) Every(interval time.Duration, task func() bool) func() {
	t := &manualTask{interval: interval, run: task}
	m.tasks = append(m.tasks, t)
	return func() { t.stopped = true }
}

// Advance moves time forward by d and fires every live task once per
// interval completed. Partial intervals carry over to the next call.
func (m *ManualScheduler) Advance(d time.Duration) {
	for _, t := range m.tasks {
		t.elapsed += d
		for t.elapsed >= t.interval && !t.stopped {
			t.elapsed -= t.interval
			if !t.run() {
				t.stopped = true
			}
		}
	}
	m.compact()
}

// Active returns the number of tasks still scheduled
func (m *ManualScheduler) Active() int {
	n := 0
	for _, t := range m.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *ManualScheduler) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tasks = live
}
