package logging

import (
	"fmt"
	"runtime"
	"time"
)

type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// This is handled this way so that the driver's config doesn't need to be
// passed into literally every function in the project.
var (
	Mode Flag = Nil
)

// MemString returns a string containing various statistics on the current
// memory usage of the process.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB; Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}

// Timer measures the wall time of one named phase of a calculation.
type Timer struct {
	name  string
	start time.Time
}

// StartTimer starts timing the named phase.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// String reports the phase name, its elapsed wall time, and the current
// memory statistics.
func (t *Timer) String() string {
	dt := time.Since(t.start)
	return fmt.Sprintf("%s - %.3f s; %s", t.name, dt.Seconds(), MemString())
}
