package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mkarimi/duelrank/internal/adapters/repository"
	"github.com/mkarimi/duelrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func TestMakeID(t *testing.T) {
	Convey("Given the id derivation", t, func() {
		Convey("Then ids are deterministic and ref-dependent", func() {
			So(repository.MakeID("/img/cat.png"), ShouldEqual, repository.MakeID("/img/cat.png"))
			So(repository.MakeID("/img/cat.png"), ShouldNotEqual, repository.MakeID("/img/dog.png"))
			So(repository.MakeID("/img/cat.png"), ShouldHaveLength, 32)
		})
	})
}

func TestRegister(t *testing.T) {
	Convey("Given an empty catalog", t, func() {
		c := repository.NewCatalog()
		ctx := context.Background()

		Convey("When an item is registered", func() {
			item, err := c.Register(ctx, "/img/cat.png", "cat.png")
			So(err, ShouldBeNil)

			Convey("Then it carries the default rating and zero counters", func() {
				So(item.Rating, ShouldEqual, 1000.0)
				So(item.Wins, ShouldEqual, 0)
				So(item.Losses, ShouldEqual, 0)
				So(item.Draws, ShouldEqual, 0)
				So(item.Matches, ShouldEqual, 0)
				So(item.CreatedAt.IsZero(), ShouldBeFalse)
				So(c.Count(ctx), ShouldEqual, 1)
			})

			Convey("And re-registering the same ref returns the existing record", func() {
				c2, err := c.Register(ctx, "/img/cat.png", "renamed.png")
				So(err, ShouldBeNil)
				So(c2.ID, ShouldEqual, item.ID)
				So(c2.DisplayName, ShouldEqual, "cat.png")
				So(c.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the source ref is empty", func() {
			_, err := c.Register(ctx, "", "nameless")
			So(err, ShouldEqual, repository.ErrEmptyRef)
		})

		Convey("When a custom default rating is configured", func() {
			custom := repository.NewCatalog(repository.WithDefaultRating(1500))
			item, err := custom.Register(ctx, "/img/dog.png", "dog.png")
			So(err, ShouldBeNil)
			So(item.Rating, ShouldEqual, 1500.0)
		})
	})
}

func TestRecordMatch(t *testing.T) {
	Convey("Given a catalog with two items", t, func() {
		c := repository.NewCatalog()
		ctx := context.Background()
		a, _ := c.Register(ctx, "/img/a.png", "a")
		b, _ := c.Register(ctx, "/img/b.png", "b")

		Convey("When A beats B", func() {
			entry, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultAWins)
			So(err, ShouldBeNil)

			Convey("Then counters and ratings are updated atomically", func() {
				gotA, _ := c.Get(ctx, a.ID)
				gotB, _ := c.Get(ctx, b.ID)
				So(gotA.Wins, ShouldEqual, 1)
				So(gotA.Matches, ShouldEqual, 1)
				So(gotB.Losses, ShouldEqual, 1)
				So(gotB.Matches, ShouldEqual, 1)
				So(gotA.Rating, ShouldAlmostEqual, 1016.0, tolerance)
				So(gotB.Rating, ShouldAlmostEqual, 984.0, tolerance)
			})

			Convey("And the log head names A as winner", func() {
				So(entry.Draw, ShouldBeFalse)
				So(entry.WinnerID, ShouldNotBeNil)
				So(*entry.WinnerID, ShouldEqual, a.ID)
				So(*entry.LoserID, ShouldEqual, b.ID)
				So(entry.WinnerRatingBefore, ShouldAlmostEqual, 1000.0, tolerance)
				So(entry.WinnerRatingAfter, ShouldAlmostEqual, 1016.0, tolerance)
				So(entry.LoserRatingAfter, ShouldAlmostEqual, 984.0, tolerance)
			})
		})

		Convey("When B beats A", func() {
			entry, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultBWins)
			So(err, ShouldBeNil)

			Convey("Then the winner-role fields carry B's ratings", func() {
				So(*entry.WinnerID, ShouldEqual, b.ID)
				So(*entry.LoserID, ShouldEqual, a.ID)
				So(entry.WinnerRatingAfter, ShouldAlmostEqual, 1016.0, tolerance)
				So(entry.LoserRatingAfter, ShouldAlmostEqual, 984.0, tolerance)
			})
		})

		Convey("When the items draw", func() {
			entry, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultDraw)
			So(err, ShouldBeNil)

			Convey("Then both items record a draw", func() {
				gotA, _ := c.Get(ctx, a.ID)
				gotB, _ := c.Get(ctx, b.ID)
				So(gotA.Draws, ShouldEqual, 1)
				So(gotB.Draws, ShouldEqual, 1)
				So(gotA.Matches, ShouldEqual, 1)
				So(gotB.Matches, ShouldEqual, 1)
			})

			Convey("And the entry has no winner or loser but keeps A-primary ratings", func() {
				So(entry.Draw, ShouldBeTrue)
				So(entry.WinnerID, ShouldBeNil)
				So(entry.LoserID, ShouldBeNil)
				So(entry.WinnerRatingBefore, ShouldAlmostEqual, 1000.0, tolerance)
				So(entry.LoserRatingBefore, ShouldAlmostEqual, 1000.0, tolerance)
			})
		})

		Convey("When either id is unknown", func() {
			_, err := c.RecordMatch(ctx, a.ID, "missing", model.ResultAWins)
			So(err, ShouldEqual, repository.ErrNotFound)

			_, err = c.RecordMatch(ctx, "missing", b.ID, model.ResultAWins)
			So(err, ShouldEqual, repository.ErrNotFound)

			Convey("Then no state changed", func() {
				gotA, _ := c.Get(ctx, a.ID)
				So(gotA.Matches, ShouldEqual, 0)
				So(gotA.Rating, ShouldEqual, 1000.0)
				So(c.History(ctx, 0), ShouldBeEmpty)
				So(c.Generation(ctx), ShouldEqual, 2) // only the two registrations
			})
		})
	})
}

func TestRankingAndRemove(t *testing.T) {
	Convey("Given a catalog with three items and some matches", t, func() {
		c := repository.NewCatalog()
		ctx := context.Background()
		a, _ := c.Register(ctx, "/img/a.png", "a")
		b, _ := c.Register(ctx, "/img/b.png", "b")
		d, _ := c.Register(ctx, "/img/d.png", "d")

		_, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultAWins)
		So(err, ShouldBeNil)
		_, err = c.RecordMatch(ctx, a.ID, d.ID, model.ResultAWins)
		So(err, ShouldBeNil)

		Convey("When the ranking is requested", func() {
			ranked := c.Ranking(ctx)

			Convey("Then items are ordered by rating descending", func() {
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].ID, ShouldEqual, a.ID)
				So(ranked[0].Rating, ShouldBeGreaterThan, ranked[1].Rating)
				So(ranked[1].Rating, ShouldBeGreaterThanOrEqualTo, ranked[2].Rating)
			})

			Convey("And equal ratings keep registration order", func() {
				fresh := repository.NewCatalog()
				x, _ := fresh.Register(ctx, "/img/x.png", "x")
				y, _ := fresh.Register(ctx, "/img/y.png", "y")
				z, _ := fresh.Register(ctx, "/img/z.png", "z")
				got := fresh.Ranking(ctx)
				So(got[0].ID, ShouldEqual, x.ID)
				So(got[1].ID, ShouldEqual, y.ID)
				So(got[2].ID, ShouldEqual, z.ID)
			})
		})

		Convey("When an item is removed", func() {
			So(c.Remove(ctx, b.ID), ShouldBeTrue)

			Convey("Then it disappears from the ranking", func() {
				for _, item := range c.Ranking(ctx) {
					So(item.ID, ShouldNotEqual, b.ID)
				}
				So(c.Count(ctx), ShouldEqual, 2)
			})

			Convey("And every log entry referencing it is purged", func() {
				for _, e := range c.History(ctx, 0) {
					So(e.References(b.ID), ShouldBeFalse)
				}
				So(c.History(ctx, 0), ShouldHaveLength, 1)
			})
		})

		Convey("When removing an unknown id", func() {
			So(c.Remove(ctx, "missing"), ShouldBeFalse)
			So(c.Count(ctx), ShouldEqual, 3)
		})
	})
}

func TestHistoryBound(t *testing.T) {
	Convey("Given a catalog with a history limit of five", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		c := repository.NewCatalog(
			repository.WithHistoryLimit(5),
			repository.WithClock(func() time.Time {
				tick++
				return now.Add(time.Duration(tick) * time.Second)
			}),
		)
		ctx := context.Background()
		a, _ := c.Register(ctx, "/img/a.png", "a")
		b, _ := c.Register(ctx, "/img/b.png", "b")

		Convey("When eight matches are recorded", func() {
			for i := 0; i < 8; i++ {
				_, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultDraw)
				So(err, ShouldBeNil)
			}
			log := c.History(ctx, 0)

			Convey("Then only the five most recent entries remain", func() {
				So(log, ShouldHaveLength, 5)
			})

			Convey("And the log is ordered most recent first", func() {
				for i := 1; i < len(log); i++ {
					So(log[i-1].Timestamp.After(log[i].Timestamp), ShouldBeTrue)
				}
			})
		})

		Convey("When a limited slice is requested", func() {
			for i := 0; i < 4; i++ {
				_, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultDraw)
				So(err, ShouldBeNil)
			}
			So(c.History(ctx, 2), ShouldHaveLength, 2)
			So(c.History(ctx, 100), ShouldHaveLength, 4)
		})
	})
}

func TestResetAndReplace(t *testing.T) {
	Convey("Given a catalog with recorded matches", t, func() {
		c := repository.NewCatalog()
		ctx := context.Background()
		a, _ := c.Register(ctx, "/img/a.png", "a")
		b, _ := c.Register(ctx, "/img/b.png", "b")
		_, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultAWins)
		So(err, ShouldBeNil)

		Convey("When ResetAll is called", func() {
			before := c.Generation(ctx)
			c.ResetAll(ctx)

			Convey("Then ratings and counters return to defaults and the log clears", func() {
				for _, item := range c.Items(ctx) {
					So(item.Rating, ShouldEqual, 1000.0)
					So(item.Matches, ShouldEqual, 0)
				}
				So(c.History(ctx, 0), ShouldBeEmpty)
				So(c.Generation(ctx), ShouldBeGreaterThan, before)
			})
		})

		Convey("When state is replaced wholesale", func() {
			items := []model.Item{
				{ID: "id-1", SourceRef: "/x.png", DisplayName: "x", Rating: 1234, Wins: 2, Matches: 2},
				{ID: "id-2", SourceRef: "/y.png", DisplayName: "y", Rating: 900, Losses: 2, Matches: 2},
			}
			wid := "id-1"
			lid := "id-2"
			history := []model.MatchEntry{{
				Timestamp: time.Now().UTC(),
				WinnerID:  &wid,
				LoserID:   &lid,
			}}
			c.ReplaceAll(ctx, items, history)

			Convey("Then the new state fully replaces the old", func() {
				So(c.Count(ctx), ShouldEqual, 2)
				got, err := c.Get(ctx, "id-1")
				So(err, ShouldBeNil)
				So(got.Rating, ShouldEqual, 1234.0)
				So(c.History(ctx, 0), ShouldHaveLength, 1)
				_, err = c.Get(ctx, a.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestConcurrentRecordMatch(t *testing.T) {
	Convey("Given a catalog under concurrent writers", t, func() {
		c := repository.NewCatalog(repository.WithHistoryLimit(10000))
		ctx := context.Background()

		ids := make([]string, 4)
		for i := range ids {
			item, err := c.Register(ctx, fmt.Sprintf("/img/%d.png", i), fmt.Sprintf("item-%d", i))
			So(err, ShouldBeNil)
			ids[i] = item.ID
		}

		Convey("When many goroutines record draws", func() {
			const perPair = 50
			done := make(chan struct{})
			for g := 0; g < 4; g++ {
				go func(g int) {
					defer func() { done <- struct{}{} }()
					a, b := ids[g%4], ids[(g+1)%4]
					for i := 0; i < perPair; i++ {
						_, _ = c.RecordMatch(ctx, a, b, model.ResultDraw)
					}
				}(g)
			}
			for g := 0; g < 4; g++ {
				<-done
			}

			Convey("Then counters stay internally consistent", func() {
				total := 0
				for _, item := range c.Items(ctx) {
					So(item.Matches, ShouldEqual, item.Wins+item.Losses+item.Draws)
					total += item.Matches
				}
				So(total, ShouldEqual, 2*4*perPair)
				So(c.History(ctx, 0), ShouldHaveLength, 4*perPair)
			})
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a catalog with items and history", t, func() {
		c := repository.NewCatalog()
		ctx := context.Background()
		a, _ := c.Register(ctx, "/img/a.png", "a")
		b, _ := c.Register(ctx, "/img/b.png", "b")
		_, err := c.RecordMatch(ctx, a.ID, b.ID, model.ResultAWins)
		So(err, ShouldBeNil)

		Convey("When a snapshot is taken", func() {
			items, history := c.Snapshot(ctx)

			Convey("Then it matches the separate accessors", func() {
				So(items, ShouldResemble, c.Items(ctx))
				So(history, ShouldResemble, c.History(ctx, 0))
			})
		})

		Convey("When a writer registers and records while snapshots are taken", func() {
			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 300; i++ {
					it, _ := c.Register(ctx, fmt.Sprintf("/img/x%03d.png", i), "x")
					_, _ = c.RecordMatch(ctx, it.ID, a.ID, model.ResultAWins)
				}
			}()

			dangling := 0
			for i := 0; i < 300; i++ {
				items, history := c.Snapshot(ctx)
				known := make(map[string]struct{}, len(items))
				for _, it := range items {
					known[it.ID] = struct{}{}
				}
				for _, e := range history {
					if e.WinnerID != nil {
						if _, ok := known[*e.WinnerID]; !ok {
							dangling++
						}
					}
					if e.LoserID != nil {
						if _, ok := known[*e.LoserID]; !ok {
							dangling++
						}
					}
				}
			}
			<-done

			Convey("Then no snapshot's history references an absent item", func() {
				So(dangling, ShouldEqual, 0)
			})
		})
	})
}
