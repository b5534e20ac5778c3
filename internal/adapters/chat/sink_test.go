package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tbg-racing/rankingsaver/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSinks(t *testing.T) {
	Convey("Given chat sinks", t, func() {
		ctx := context.Background()
		msg := "$o$20atBG $fff- Map scores saved successfully.$z"

		Convey("When a writer sink sends a message", func() {
			var buf bytes.Buffer
			NewWriterSink(&buf).Send(ctx, msg)

			Convey("Then a plain line is written", func() {
				So(buf.String(), ShouldEqual, "tBG - Map scores saved successfully.\n")
			})
		})

		Convey("When a log sink sends a message", func() {
			var buf bytes.Buffer
			So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
			NewLogSink(logger.Get()).Send(ctx, msg)

			Convey("Then the stripped message is logged", func() {
				So(buf.String(), ShouldContainSubstring, "tBG - Map scores saved successfully.")
				So(strings.Contains(buf.String(), "$20a"), ShouldBeFalse)
			})
		})

		Convey("When a recorder receives messages", func() {
			rec := &Recorder{}
			So(rec.Last(), ShouldEqual, "")
			rec.Send(ctx, "one")
			rec.Send(ctx, msg)

			Convey("Then raw messages are kept in order", func() {
				So(rec.Messages(), ShouldResemble, []string{"one", msg})
				So(rec.Last(), ShouldEqual, msg)
			})

			Convey("Then the returned slice is a copy", func() {
				got := rec.Messages()
				got[0] = "changed"
				So(rec.Messages()[0], ShouldEqual, "one")
			})
		})

		Convey("When several sinks are combined", func() {
			a, b := &Recorder{}, &Recorder{}
			Multi{a, b}.Send(ctx, "hello")

			Convey("Then each one receives the message", func() {
				So(a.Last(), ShouldEqual, "hello")
				So(b.Last(), ShouldEqual, "hello")
			})
		})
	})
}
