package stats

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// WindowStats exposes the telemetry window's size counters.
type WindowStats interface {
	Len() int
	Evicted() int64
}

// CacheStats exposes the resolution cache size.
type CacheStats interface {
	CacheLen() int
}

// Reporter periodically logs pipeline runtime statistics.
type Reporter struct {
	scheduler *gocron.Scheduler
	window    WindowStats
	cache     CacheStats
	interval  time.Duration
}

// New creates a Reporter logging every interval.
func New(window WindowStats, cache CacheStats, interval time.Duration) *Reporter {
	s := gocron.NewScheduler(time.UTC)
	return &Reporter{
		scheduler: s,
		window:    window,
		cache:     cache,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (r *Reporter) Start() error {
	seconds := int(r.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := r.scheduler.Every(seconds).Seconds().Do(func() {
		log.Printf("stats: records=%d evicted=%d cached_resolutions=%d",
			r.window.Len(), r.window.Evicted(), r.cache.CacheLen())
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (r *Reporter) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
