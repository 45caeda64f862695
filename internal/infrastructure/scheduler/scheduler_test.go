package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type captureLogger struct {
	mu     sync.Mutex
	errors []string
}

func (c *captureLogger) Errorf(template string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, fmt.Sprintf(template, args...))
}

func (c *captureLogger) errorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

func TestScheduler(t *testing.T) {
	Convey("Given a Scheduler", t, func() {
		log := &captureLogger{}

		Convey("When adding a job with a valid spec", func() {
			s := New(log)
			var runs atomic.Int32

			err := s.AddJob("tick", "* * * * * *", func(ctx context.Context) error {
				runs.Add(1)
				return nil
			})

			Convey("It should run the job and stop cleanly", func() {
				So(err, ShouldBeNil)

				s.Start()
				time.Sleep(2 * time.Second)
				s.Stop()

				So(runs.Load(), ShouldBeGreaterThan, 0)
				So(log.errorCount(), ShouldEqual, 0)
			})
		})

		Convey("When a job returns an error", func() {
			s := New(log)

			err := s.AddJob("failing", "* * * * * *", func(ctx context.Context) error {
				return fmt.Errorf("device unauthorized")
			})

			Convey("The error should be logged, not fatal", func() {
				So(err, ShouldBeNil)

				s.Start()
				time.Sleep(2 * time.Second)
				s.Stop()

				So(log.errorCount(), ShouldBeGreaterThan, 0)
				So(log.errors[0], ShouldContainSubstring, "failing")
				So(log.errors[0], ShouldContainSubstring, "device unauthorized")
			})
		})

		Convey("When adding a job with an invalid spec", func() {
			s := New(log)

			err := s.AddJob("bad", "not a cron spec", func(ctx context.Context) error { return nil })

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "expected exactly 6 fields")
			})
		})
	})
}
