package frequense

import "time"

type civilDate struct {
	year  int
	month time.Month
	day   int
}

// Window is the set of calendar dates a harvest cares about: the
// `days` consecutive dates ending at yesterday. Membership is by date
// only, never by time of day.
type Window struct {
	dates map[civilDate]struct{}
}

// NewWindow computes the window relative to an explicit reference
// time so tests aren't hostage to the wall clock. days <= 1 means
// yesterday only.
func NewWindow(now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	w := Window{dates: make(map[civilDate]struct{}, days)}
	for i := 1; i <= days; i++ {
		t := now.AddDate(0, 0, -i)
		w.dates[civilDate{t.Year(), t.Month(), t.Day()}] = struct{}{}
	}
	return w
}

func (w Window) Contains(t time.Time) bool {
	_, ok := w.dates[civilDate{t.Year(), t.Month(), t.Day()}]
	return ok
}

func (w Window) Len() int {
	return len(w.dates)
}
