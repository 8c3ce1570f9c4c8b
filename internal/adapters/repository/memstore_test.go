package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/points"
	. "github.com/smartystreets/goconvey/convey"
)

func seedPerformance(ctx context.Context, store repository.Store) model.Performance {
	ev, _ := store.PutEvent(ctx, model.Event{Name: "Nationals", EventDate: time.Now(), Status: model.EventInProgress})
	app, _ := store.PutApparatus(ctx, model.Apparatus{Name: "Floor Exercise", Code: "FX"})
	ath, _ := store.PutAthlete(ctx, model.Athlete{FirstName: "Rebeca", LastName: "Andrade", Country: "BRA"})
	p, _ := store.PutPerformance(ctx, model.Performance{EventID: ev.ID, AthleteID: ath.ID, ApparatusID: app.ID})
	return p
}

func TestMemStoreScores(t *testing.T) {
	Convey("Given a store with one performance", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		perf := seedPerformance(ctx, store)

		Convey("When a judge submits a score", func() {
			s, overwrote, err := store.UpsertScore(ctx, model.Score{
				PerformanceID: perf.ID,
				JudgeID:       7,
				ScoreType:     model.EScore,
				Value:         points.MustParse("1.500"),
				SubmittedAt:   time.Now(),
			})
			So(err, ShouldBeNil)
			So(overwrote, ShouldBeFalse)
			So(s.ID, ShouldBeGreaterThan, 0)

			Convey("And the same judge resubmits the same type", func() {
				s2, overwrote2, err := store.UpsertScore(ctx, model.Score{
					PerformanceID: perf.ID,
					JudgeID:       7,
					ScoreType:     model.EScore,
					Value:         points.MustParse("1.700"),
					SubmittedAt:   time.Now(),
				})
				So(err, ShouldBeNil)

				Convey("Then the submission overwrites in place", func() {
					So(overwrote2, ShouldBeTrue)
					So(s2.ID, ShouldEqual, s.ID)

					scores, err := store.ScoresForPerformance(ctx, perf.ID)
					So(err, ShouldBeNil)
					So(scores, ShouldHaveLength, 1)
					So(scores[0].Value, ShouldEqual, points.MustParse("1.700"))
				})
			})

			Convey("And a different judge submits", func() {
				_, overwrote2, err := store.UpsertScore(ctx, model.Score{
					PerformanceID: perf.ID,
					JudgeID:       8,
					ScoreType:     model.EScore,
					Value:         points.MustParse("1.200"),
					SubmittedAt:   time.Now(),
				})
				So(err, ShouldBeNil)
				So(overwrote2, ShouldBeFalse)

				scores, err := store.ScoresForPerformance(ctx, perf.ID)
				So(err, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
			})
		})

		Convey("When submitting against an unknown performance", func() {
			_, _, err := store.UpsertScore(ctx, model.Score{PerformanceID: 999, JudgeID: 1, ScoreType: model.DScore})
			So(errors.Is(err, repository.ErrMissingReference), ShouldBeTrue)
		})

		Convey("When snapshotting scores", func() {
			base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
			_, _, _ = store.UpsertScore(ctx, model.Score{PerformanceID: perf.ID, JudgeID: 2, ScoreType: model.EScore, Value: points.MustParse("1.0"), SubmittedAt: base.Add(2 * time.Minute)})
			_, _, _ = store.UpsertScore(ctx, model.Score{PerformanceID: perf.ID, JudgeID: 3, ScoreType: model.DScore, Value: points.MustParse("5.0"), SubmittedAt: base.Add(time.Minute)})
			_, _, _ = store.UpsertScore(ctx, model.Score{PerformanceID: perf.ID, JudgeID: 1, ScoreType: model.EScore, Value: points.MustParse("1.2"), SubmittedAt: base})

			scores, err := store.ScoresForPerformance(ctx, perf.ID)
			So(err, ShouldBeNil)

			Convey("Then ordering is score_type, then submission time", func() {
				So(scores, ShouldHaveLength, 3)
				So(scores[0].ScoreType, ShouldEqual, model.DScore)
				So(scores[1].JudgeID, ShouldEqual, 1)
				So(scores[2].JudgeID, ShouldEqual, 2)
			})
		})
	})
}

func TestMemStorePerformanceUpsert(t *testing.T) {
	Convey("Given a registered performance", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		perf := seedPerformance(ctx, store)

		Convey("When the same natural key is registered again", func() {
			again, err := store.PutPerformance(ctx, model.Performance{
				EventID:     perf.EventID,
				AthleteID:   perf.AthleteID,
				ApparatusID: perf.ApparatusID,
				OrderNumber: 4,
			})
			So(err, ShouldBeNil)

			Convey("Then the surrogate id is stable", func() {
				So(again.ID, ShouldEqual, perf.ID)
				So(store.CountPerformances(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the performance references unknown entities", func() {
			_, err := store.PutPerformance(ctx, model.Performance{EventID: 99, AthleteID: 99, ApparatusID: 99})
			So(errors.Is(err, repository.ErrMissingReference), ShouldBeTrue)
		})
	})
}

func TestMemStoreFinalScores(t *testing.T) {
	Convey("Given a performance with a calculated final score", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		perf := seedPerformance(ctx, store)

		fs := model.FinalScore{
			PerformanceID:     perf.ID,
			DScore:            points.MustParse("5.400"),
			EScore:            points.MustParse("8.350"),
			NeutralDeductions: points.Zero,
			FinalValue:        points.MustParse("13.750"),
			CalculationMethod: model.CalculationMethodDropHighLow,
			CalculatedAt:      time.Now(),
		}
		stored, err := store.UpsertFinalScore(ctx, fs, false)
		So(err, ShouldBeNil)
		So(stored.IsOfficial, ShouldBeFalse)

		Convey("When recalculated before publication", func() {
			fs.FinalValue = points.MustParse("13.250")
			fs.NeutralDeductions = points.MustParse("0.500")
			updated, err := store.UpsertFinalScore(ctx, fs, false)
			So(err, ShouldBeNil)
			So(updated.FinalValue, ShouldEqual, points.MustParse("13.250"))
		})

		Convey("When published", func() {
			affected, err := store.Publish(ctx, []int64{perf.ID, 999}, time.Now())
			So(err, ShouldBeNil)

			Convey("Then unknown ids are silently skipped", func() {
				So(affected, ShouldEqual, 1)
			})

			Convey("Then recalculation is refused without force", func() {
				_, err := store.UpsertFinalScore(ctx, fs, false)
				So(errors.Is(err, repository.ErrAlreadyPublished), ShouldBeTrue)

				Convey("And the published row is untouched", func() {
					got, err := store.FinalScoreFor(ctx, perf.ID)
					So(err, ShouldBeNil)
					So(got.FinalValue, ShouldEqual, points.MustParse("13.750"))
					So(got.IsOfficial, ShouldBeTrue)
				})
			})

			Convey("Then a forced recalculation replaces values but keeps publication fields", func() {
				fs.FinalValue = points.MustParse("13.250")
				updated, err := store.UpsertFinalScore(ctx, fs, true)
				So(err, ShouldBeNil)
				So(updated.FinalValue, ShouldEqual, points.MustParse("13.250"))
				So(updated.IsOfficial, ShouldBeTrue)
				So(updated.PublishedAt, ShouldNotBeNil)
			})

			Convey("Then unpublish reopens the row", func() {
				affected, err := store.Unpublish(ctx, []int64{perf.ID})
				So(err, ShouldBeNil)
				So(affected, ShouldEqual, 1)

				_, err = store.UpsertFinalScore(ctx, fs, false)
				So(err, ShouldBeNil)
			})
		})

		Convey("When looking up a missing final score", func() {
			_, err := store.FinalScoreFor(ctx, 999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemStoreLeaderboardRows(t *testing.T) {
	Convey("Given an event with two apparatus", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		ev, _ := store.PutEvent(ctx, model.Event{Name: "Worlds", EventDate: time.Now(), Status: model.EventInProgress})
		fx, _ := store.PutApparatus(ctx, model.Apparatus{Name: "Floor Exercise", Code: "FX"})
		vt, _ := store.PutApparatus(ctx, model.Apparatus{Name: "Vault", Code: "VT"})
		a1, _ := store.PutAthlete(ctx, model.Athlete{FirstName: "Simone", LastName: "Biles"})
		a2, _ := store.PutAthlete(ctx, model.Athlete{FirstName: "Rebeca", LastName: "Andrade"})
		p1, _ := store.PutPerformance(ctx, model.Performance{EventID: ev.ID, AthleteID: a1.ID, ApparatusID: fx.ID})
		_, _ = store.PutPerformance(ctx, model.Performance{EventID: ev.ID, AthleteID: a2.ID, ApparatusID: vt.ID})

		Convey("When fetching all rows for the event", func() {
			rows, err := store.LeaderboardRows(ctx, ev.ID, nil)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
		})

		Convey("When filtering by apparatus", func() {
			rows, err := store.LeaderboardRows(ctx, ev.ID, &fx.ID)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Performance.ID, ShouldEqual, p1.ID)
			So(rows[0].Athlete.LastName, ShouldEqual, "Biles")
			So(rows[0].Final, ShouldBeNil)
		})

		Convey("When the event is unknown", func() {
			_, err := store.LeaderboardRows(ctx, 999, nil)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
