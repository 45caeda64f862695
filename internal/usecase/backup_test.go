package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/droidkeep/droidkeep/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBackupArgs(t *testing.T) {
	Convey("Given backup sessions", t, func() {
		Convey("An all-data session maps to -all before -f", func() {
			sess := &domain.Session{
				Device:     "abc123",
				Scope:      domain.AllData(),
				OutputPath: "/archive/droidkeep_all_abc123_20250101_020000.ab",
			}

			So(BackupArgs(sess), ShouldResemble, []string{
				"-s", "abc123", "backup", "-all", "-f",
				"/archive/droidkeep_all_abc123_20250101_020000.ab",
			})
		})

		Convey("A single-app session maps to -f then -apk", func() {
			sess := &domain.Session{
				Device:     "10.0.0.5:5555",
				Scope:      domain.SingleApplication("com.example.app"),
				OutputPath: "/archive/out.ab",
			}

			So(BackupArgs(sess), ShouldResemble, []string{
				"-s", "10.0.0.5:5555", "backup", "-f", "/archive/out.ab",
				"-apk", "com.example.app",
			})
		})
	})
}

func TestSessionController(t *testing.T) {
	Convey("Given a SessionController", t, func() {
		log := &testLogger{}
		input := &fakeInput{}
		local := newStubLocal(t)
		ctx := context.Background()

		session := func(auto *domain.AutomationPlan, timeout time.Duration) *domain.Session {
			return &domain.Session{
				Device:     "abc123",
				Scope:      domain.AllData(),
				Automation: auto,
				OutputPath: local.GetPath("droidkeep_all_abc123_20250101_020000.ab"),
				Timeout:    timeout,
				Delays:     quickDelays(),
			}
		}

		Convey("When the subprocess exits zero and writes the artifact", func() {
			stub := writeStub(t, `touch "$6"`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			result, err := uc.Execute(ctx, session(nil, 10*time.Second))

			Convey("The session succeeds and keeps the artifact", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeSucceeded)
				So(result.ArtifactPath, ShouldEqual, local.GetPath("droidkeep_all_abc123_20250101_020000.ab"))

				_, statErr := os.Stat(result.ArtifactPath)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the subprocess exits zero without an artifact", func() {
			stub := writeStub(t, `exit 0`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			result, err := uc.Execute(ctx, session(nil, 10*time.Second))

			Convey("The session still succeeds, with no artifact path", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeSucceeded)
				So(result.ArtifactPath, ShouldEqual, "")
			})
		})

		Convey("When the subprocess exits non-zero", func() {
			stub := writeStub(t, `echo "Backup not allowed" >&2
exit 1`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			result, err := uc.Execute(ctx, session(nil, 10*time.Second))

			Convey("The session fails and carries the stderr verbatim", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeFailed)
				So(result.Stderr, ShouldEqual, "Backup not allowed")
			})
		})

		Convey("When the subprocess outlives the timeout", func() {
			stub := writeStub(t, `exec sleep 30`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			start := time.Now()
			result, err := uc.Execute(ctx, session(nil, 500*time.Millisecond))

			Convey("The subprocess is killed and the session times out", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeTimedOut)
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
			})
		})

		Convey("When the bridge binary does not exist", func() {
			uc := NewSessionController("/nonexistent/adb", input, local, nil, nil, log, false)

			result, err := uc.Execute(ctx, session(nil, time.Second))

			Convey("It should report the missing binary", func() {
				So(result, ShouldBeNil)
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, ErrBridgeNotFound)
			})
		})

		Convey("When an automation plan with a password confirm point is set", func() {
			stub := writeStub(t, `sleep 1
touch "$6"`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			plan := &domain.AutomationPlan{
				Confirm:         domain.Point{X: 758, Y: 1230},
				PasswordField:   &domain.Point{X: 300, Y: 400},
				PasswordConfirm: &domain.Point{X: 900, Y: 1500},
				Password:        "secret",
				EnterKeyCode:    domain.KeycodeEnter,
			}

			result, err := uc.Execute(ctx, session(plan, 10*time.Second))

			Convey("The full input sequence plays in order", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeSucceeded)
				So(input.sequence(), ShouldResemble, []string{
					"tap 758 1230",
					"tap 300 400",
					"text secret",
					"tap 900 1500",
				})
			})
		})

		Convey("When the plan has a password but no confirm point", func() {
			stub := writeStub(t, `sleep 1
touch "$6"`)
			uc := NewSessionController(stub, input, local, nil, nil, log, false)

			plan := &domain.AutomationPlan{
				Confirm:      domain.Point{X: 758, Y: 1230},
				Password:     "secret",
				EnterKeyCode: domain.KeycodeEnter,
			}

			_, err := uc.Execute(ctx, session(plan, 10*time.Second))

			Convey("The enter key closes the dialog", func() {
				So(err, ShouldBeNil)
				So(input.sequence(), ShouldResemble, []string{
					"tap 758 1230",
					"text secret",
					"key 66",
				})
			})
		})

		Convey("When upload targets are configured", func() {
			stub := writeStub(t, `touch "$6"`)
			remote := &fakeStorage{}
			targets := []UploadTarget{{Name: "s3", Storage: remote}}
			uc := NewSessionController(stub, input, local, targets, nil, log, false)

			result, err := uc.Execute(ctx, session(nil, 10*time.Second))

			Convey("The artifact fans out to the target", func() {
				So(err, ShouldBeNil)
				So(result.Outcome, ShouldEqual, domain.OutcomeSucceeded)
				So(remote.uploadedNames(), ShouldResemble, []string{
					"droidkeep_all_abc123_20250101_020000.ab",
				})
			})
		})
	})
}
