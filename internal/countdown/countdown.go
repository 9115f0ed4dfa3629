// Package countdown owns the live countdown timers for active goals.
// It computes remaining-time buckets and publishes immutable display
// snapshots; rendering is somebody else's job.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitdone-app/gitdone-client/internal/deadline"
	"github.com/gitdone-app/gitdone-client/internal/models"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// Bucket classifies how much time remains before a deadline.
type Bucket int

const (
	BucketExpired   Bucket = iota // remaining == 0
	BucketUnderHour               // remaining < 1h
	BucketUnderDay                // 1h <= remaining < 1d
	BucketUnderWeek               // 1d <= remaining < 7d
	BucketBeyond                  // remaining >= 7d
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
)

// Snapshot is one published display state for a goal's countdown.
type Snapshot struct {
	GoalID    string
	Deadline  time.Time
	Remaining int64 // whole seconds, never negative
	Bucket    Bucket
	Display   string // e.g. "2d 04:09:33" or "TIME'S UP"
	Status    string // human status line
	Urgent    bool
	Terminal  bool // countdown reached zero; no further ticks follow
}

// Compute derives the display snapshot for a deadline at a given instant.
// Pure; the scheduler calls it once per tick.
func Compute(goalID string, dl, now time.Time, codec *deadline.Codec) Snapshot {
	// Truncating the real duration floors the remaining time; differencing
	// the two Unix values instead would round up against fractional clocks.
	remaining := int64(dl.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}

	snap := Snapshot{
		GoalID:    goalID,
		Deadline:  dl,
		Remaining: remaining,
	}

	if remaining == 0 {
		snap.Bucket = BucketExpired
		snap.Display = "TIME'S UP"
		snap.Status = "Time's up! Push that commit!"
		snap.Urgent = true
		snap.Terminal = true
		return snap
	}

	days := remaining / secondsPerDay
	hours := (remaining % secondsPerDay) / secondsPerHour
	minutes := (remaining % secondsPerHour) / secondsPerMinute
	seconds := remaining % secondsPerMinute

	if days > 0 {
		snap.Display = fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
	} else {
		snap.Display = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	switch {
	case remaining < secondsPerHour:
		snap.Bucket = BucketUnderHour
		snap.Urgent = true
		snap.Status = "Less than 1 hour left!"
	case remaining < secondsPerDay:
		snap.Bucket = BucketUnderDay
		snap.Status = "Less than 1 day left!"
	case remaining < secondsPerWeek:
		snap.Bucket = BucketUnderWeek
		if days == 1 {
			snap.Status = "1 day remaining"
		} else {
			snap.Status = fmt.Sprintf("%d days remaining", days)
		}
	default:
		snap.Bucket = BucketBeyond
		snap.Status = "Deadline: " + codec.Format(dl)
	}
	return snap
}

// PublishFunc receives every snapshot the scheduler produces.
type PublishFunc func(Snapshot)

// Scheduler exclusively owns all live countdown timers, at most one per
// goal id. Timers tick once per second and stop themselves at zero.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*timer

	codec    *deadline.Codec
	publish  PublishFunc
	interval time.Duration
	now      func() time.Time
}

type timer struct {
	cancel chan struct{}
	once   sync.Once
}

func (t *timer) stop() {
	t.once.Do(func() { close(t.cancel) })
}

// NewScheduler creates a scheduler publishing snapshots through publish.
func NewScheduler(codec *deadline.Codec, publish PublishFunc) *Scheduler {
	return &Scheduler{
		timers:   make(map[string]*timer),
		codec:    codec,
		publish:  publish,
		interval: time.Second,
		now:      time.Now,
	}
}

// Start begins (or restarts) the countdown for a goal. Any existing timer
// for the same id is canceled first, so two timers never coexist for one
// goal. An unparseable deadline is an error and no timer starts.
func (s *Scheduler) Start(g models.Goal) error {
	dl, err := s.resolveDeadline(g)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"goal_id":  g.ID,
			"deadline": g.Deadline,
		}).WithError(err).Warn("Cannot start countdown")
		return err
	}

	t := &timer{cancel: make(chan struct{})}

	s.mu.Lock()
	if prev, ok := s.timers[g.ID]; ok {
		prev.stop()
	}
	s.timers[g.ID] = t
	s.mu.Unlock()

	go s.run(g.ID, dl, t)
	return nil
}

// Stop cancels and removes the timer for a goal id. Calling it when no
// timer exists is a no-op.
func (s *Scheduler) Stop(goalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[goalID]; ok {
		t.stop()
		delete(s.timers, goalID)
	}
}

// StopAll cancels every live timer.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.stop()
		delete(s.timers, id)
	}
}

// Running reports whether a timer currently exists for the goal id.
func (s *Scheduler) Running(goalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[goalID]
	return ok
}

// Count returns the number of live timers.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// ResolveDeadline prefers the original display text when it still parses,
// so the countdown is not skewed by a zone conversion between creation
// and redisplay; the canonical timestamp is the fallback and remains
// authoritative whenever the display text is absent or broken.
func ResolveDeadline(g models.Goal, codec *deadline.Codec) (time.Time, error) {
	if g.DeadlineDisplay != "" {
		if t, err := codec.Parse(g.DeadlineDisplay); err == nil {
			return t, nil
		}
	}
	if g.Deadline != "" {
		if t, err := deadline.ParseCanonical(g.Deadline); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("goal %s has no parseable deadline", g.ID)
}

func (s *Scheduler) resolveDeadline(g models.Goal) (time.Time, error) {
	return ResolveDeadline(g, s.codec)
}

func (s *Scheduler) run(goalID string, dl time.Time, t *timer) {
	// First tick fires immediately, mirroring how the countdown should
	// appear the instant a goal is shown.
	if s.tick(goalID, dl, t) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.cancel:
			return
		case <-ticker.C:
			if s.tick(goalID, dl, t) {
				return
			}
		}
	}
}

// tick publishes one snapshot and reports whether the countdown is done.
func (s *Scheduler) tick(goalID string, dl time.Time, t *timer) bool {
	select {
	case <-t.cancel:
		return true
	default:
	}

	snap := Compute(goalID, dl, s.now(), s.codec)
	s.publish(snap)

	if snap.Terminal {
		s.removeIfCurrent(goalID, t)
		return true
	}
	return false
}

// removeIfCurrent discards the timer only if it is still the registered
// one; a restart may already have replaced it.
func (s *Scheduler) removeIfCurrent(goalID string, t *timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.timers[goalID]; ok && cur == t {
		t.stop()
		delete(s.timers, goalID)
	}
}
