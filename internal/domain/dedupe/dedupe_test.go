package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/mkarimi/duelrank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given an empty deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When an id is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "v-1")

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second submission is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "v-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "v-2")
			d.Unrecord(ctx, "v-2")

			Convey("Then it can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "v-2"), ShouldBeFalse)
			})
		})

		Convey("And unrecording an unknown id is a no-op", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		for i := 1; i <= 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("v-%d", i)), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "v-4"), ShouldBeFalse)

			Convey("Then the oldest id was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "v-1"), ShouldBeFalse) // forgotten, so recorded anew
			})

			Convey("And newer ids are still remembered", func() {
				So(d.SeenAndRecord(ctx, "v-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "v-4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper with eviction disabled", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		ctx := context.Background()

		Convey("When many ids are recorded", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("v-%d", i)), ShouldBeFalse)
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
			})
		})
	})
}
