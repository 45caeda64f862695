package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the logger package", t, func() {
		Convey("When creating a console-only logger", func() {
			log, err := New("info", "")

			Convey("It should create successfully", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(func() { log.Info("probe complete") }, ShouldNotPanic)
			})
		})

		Convey("When creating a logger with a file sink", func() {
			logFile := filepath.Join(t.TempDir(), "logs", "droidkeep.log")

			log, err := New("debug", logFile)

			Convey("It should create the log directory and write to the file", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)

				log.Debug("session starting")
				log.Sync()

				_, err := os.Stat(logFile)
				So(err, ShouldBeNil)

				log.Close()
			})
		})

		Convey("When the log level is unrecognised", func() {
			log, err := New("chatty", "")

			Convey("It should fall back to info level", func() {
				So(err, ShouldBeNil)
				So(log, ShouldNotBeNil)
				So(func() { log.Info("still logging") }, ShouldNotPanic)
			})
		})

		Convey("When the log directory cannot be created", func() {
			log, err := New("info", "/dev/null/droidkeep.log")

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create log directory")
				So(log, ShouldBeNil)
			})
		})

		Convey("When closing a logger", func() {
			log, err := New("info", "")
			So(err, ShouldBeNil)

			Convey("It should not panic", func() {
				So(func() { log.Close() }, ShouldNotPanic)
			})
		})
	})
}
