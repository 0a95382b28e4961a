package seedvotes

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mkarimi/duelrank/internal/domain/model"
)

func TestSpearman(t *testing.T) {
	Convey("Given true-strength and observed orders", t, func() {
		items := []item{
			{ID: "a", Strength: 300},
			{ID: "b", Strength: 200},
			{ID: "c", Strength: 100},
			{ID: "d", Strength: 0},
		}

		Convey("When the observed order matches exactly", func() {
			observed := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
			So(spearman(items, observed), ShouldEqual, 1.0)
		})

		Convey("When the observed order is fully reversed", func() {
			observed := map[string]int{"a": 4, "b": 3, "c": 2, "d": 1}
			So(spearman(items, observed), ShouldEqual, -1.0)
		})

		Convey("When one adjacent pair is swapped", func() {
			observed := map[string]int{"a": 1, "b": 3, "c": 2, "d": 4}
			got := spearman(items, observed)
			So(got, ShouldBeGreaterThan, 0.5)
			So(got, ShouldBeLessThan, 1.0)
		})

		Convey("When an item is missing from the ranking it counts as last", func() {
			observed := map[string]int{"a": 1, "b": 2, "c": 3}
			So(spearman(items, observed), ShouldEqual, 1.0)
		})
	})
}

func TestSampleResult(t *testing.T) {
	Convey("Given a strength gap of 400 points", t, func() {
		rng := rand.New(rand.NewSource(42))

		Convey("When many outcomes are sampled", func() {
			var aWins, bWins, draws int
			const samples = 20000
			for i := 0; i < samples; i++ {
				switch sampleResult(rng, 400, 0) {
				case model.ResultAWins:
					aWins++
				case model.ResultBWins:
					bWins++
				default:
					draws++
				}
			}

			Convey("Then the stronger side wins about 10 times in 11 decisive games", func() {
				ratio := float64(aWins) / float64(aWins+bWins)
				So(ratio, ShouldBeBetween, 0.87, 0.94)
			})

			Convey("Then draws stay near the configured probability", func() {
				drawRate := float64(draws) / float64(samples)
				So(drawRate, ShouldBeBetween, 0.06, 0.10)
			})
		})
	})
}
