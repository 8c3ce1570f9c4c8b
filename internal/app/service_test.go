package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/salto/internal/app"
	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/internal/domain/points"
	"github.com/okian/salto/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// fixture seeds one event, one apparatus, and registered athletes.
type fixture struct {
	svc       *service.Service
	event     model.Event
	apparatus model.Apparatus
}

func newFixture(ctx context.Context, t *testing.T) *fixture {
	t.Helper()

	svc := service.New(
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	ev, err := svc.RegisterEvent(ctx, model.Event{
		Name:      "National Championships",
		EventDate: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
		Status:    model.EventInProgress,
	})
	if err != nil {
		t.Fatalf("register event: %v", err)
	}

	app, err := svc.RegisterApparatus(ctx, model.Apparatus{
		Name: "Floor Exercise",
		Code: "FX",
	})
	if err != nil {
		t.Fatalf("register apparatus: %v", err)
	}

	return &fixture{svc: svc, event: ev, apparatus: app}
}

func (f *fixture) performance(ctx context.Context, t *testing.T, firstName, lastName string) model.Performance {
	t.Helper()

	ath, err := f.svc.RegisterAthlete(ctx, model.Athlete{FirstName: firstName, LastName: lastName})
	if err != nil {
		t.Fatalf("register athlete: %v", err)
	}
	perf, err := f.svc.RegisterPerformance(ctx, model.Performance{
		EventID:     f.event.ID,
		AthleteID:   ath.ID,
		ApparatusID: f.apparatus.ID,
	})
	if err != nil {
		t.Fatalf("register performance: %v", err)
	}
	return perf
}

func (f *fixture) submit(ctx context.Context, t *testing.T, perfID, judgeID int64, st model.ScoreType, value string, penalties ...model.Penalty) {
	t.Helper()
	_, _, err := f.svc.SubmitScore(ctx, model.Score{
		PerformanceID: perfID,
		JudgeID:       judgeID,
		ScoreType:     st,
		Value:         points.MustParse(value),
		Penalties:     penalties,
	})
	if err != nil {
		t.Fatalf("submit score: %v", err)
	}
}

// seedPanel submits the standard two-judge D panel and four-judge E panel
// used by the concrete scenarios.
func (f *fixture) seedPanel(ctx context.Context, t *testing.T, perfID int64) {
	t.Helper()
	f.submit(ctx, t, perfID, 101, model.DScore, "5.300")
	f.submit(ctx, t, perfID, 102, model.DScore, "5.500")
	f.submit(ctx, t, perfID, 201, model.EScore, "1.200")
	f.submit(ctx, t, perfID, 202, model.EScore, "1.500")
	f.submit(ctx, t, perfID, 203, model.EScore, "1.800")
	f.submit(ctx, t, perfID, 204, model.EScore, "2.100")
}

func TestCalculateFinalScore(t *testing.T) {
	Convey("Given a scored performance", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)
		perf := f.performance(ctx, t, "Rebeca", "Andrade")
		f.seedPanel(ctx, t, perf.ID)

		Convey("the D panel averages directly with no drop on two judges", func() {
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.DScore, ShouldEqual, points.MustParse("5.400"))
		})

		Convey("the E panel drops high and low deductions and works off 10.000", func() {
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.EScore, ShouldEqual, points.MustParse("8.350"))
			So(*fs.EScoresDetail.DroppedLow, ShouldEqual, points.MustParse("1.200"))
			So(*fs.EScoresDetail.DroppedHigh, ShouldEqual, points.MustParse("2.100"))
			So(fs.EScoresDetail.Average, ShouldEqual, points.MustParse("1.650"))
			So(fs.EScoresDetail.AveragedScores, ShouldResemble, []points.P{
				points.MustParse("1.500"), points.MustParse("1.800"),
			})
		})

		Convey("the final combines both panels minus neutral deductions", func() {
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.NeutralDeductions, ShouldEqual, points.Zero)
			So(fs.FinalValue, ShouldEqual, points.MustParse("13.750"))
			So(fs.CalculationMethod, ShouldEqual, model.CalculationMethodDropHighLow)
		})

		Convey("a penalty on one submission becomes a neutral deduction", func() {
			f.submit(ctx, t, perf.ID, 101, model.DScore, "5.300",
				model.Penalty{Name: "coach_assistance", Value: points.MustParse("0.5")},
			)
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.NeutralDeductions, ShouldEqual, points.MustParse("0.500"))
			So(fs.FinalValue, ShouldEqual, points.MustParse("13.250"))
		})

		Convey("recalculating without score changes is numerically idempotent", func() {
			first, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			second, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)

			So(second.DScore, ShouldEqual, first.DScore)
			So(second.EScore, ShouldEqual, first.EScore)
			So(second.NeutralDeductions, ShouldEqual, first.NeutralDeductions)
			So(second.FinalValue, ShouldEqual, first.FinalValue)
			So(second.EScoresDetail, ShouldResemble, first.EScoresDetail)
		})

		Convey("the stored row always satisfies the round-trip identity", func() {
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.FinalValue, ShouldEqual, fs.DScore.Add(fs.EScore).Sub(fs.NeutralDeductions))
		})
	})

	Convey("Given edge-case panels", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)

		Convey("a performance with zero submissions fails with the domain error", func() {
			perf := f.performance(ctx, t, "Simone", "Biles")
			_, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldWrap, service.ErrNoScores)
		})

		Convey("an unknown performance reports not found", func() {
			_, err := f.svc.CalculateFinalScore(ctx, 424242, false)
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("the execution score floors at zero under extreme deductions", func() {
			perf := f.performance(ctx, t, "Kohei", "Uchimura")
			f.submit(ctx, t, perf.ID, 201, model.EScore, "11.000")
			f.submit(ctx, t, perf.ID, 202, model.EScore, "12.000")

			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.EScore, ShouldEqual, points.Zero)
		})

		Convey("a D-only panel leaves the execution component at zero", func() {
			perf := f.performance(ctx, t, "Oksana", "Chusovitina")
			f.submit(ctx, t, perf.ID, 101, model.DScore, "6.000")

			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.DScore, ShouldEqual, points.MustParse("6.000"))
			So(fs.EScore, ShouldEqual, points.Zero)
			So(fs.FinalValue, ShouldEqual, points.MustParse("6.000"))
			So(fs.EScoresDetail.Scores, ShouldBeEmpty)
		})

		Convey("every submission is stamped with its ingestion time", func() {
			perf := f.performance(ctx, t, "Nina", "Derwael")
			before := time.Now().UTC()
			f.submit(ctx, t, perf.ID, 101, model.DScore, "5.600")

			scores, _, err := f.svc.ScoresForPerformance(ctx, perf.ID)
			So(err, ShouldBeNil)
			So(scores, ShouldHaveLength, 1)
			So(scores[0].SubmittedAt.IsZero(), ShouldBeFalse)
			So(scores[0].SubmittedAt.Before(before), ShouldBeFalse)
		})

		Convey("a three-judge D panel still averages directly with no drop", func() {
			perf := f.performance(ctx, t, "Daiki", "Hashimoto")
			f.submit(ctx, t, perf.ID, 101, model.DScore, "5.000")
			f.submit(ctx, t, perf.ID, 102, model.DScore, "5.500")
			f.submit(ctx, t, perf.ID, 103, model.DScore, "6.300")

			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.DScore, ShouldEqual, points.MustParse("5.600"))
		})

		Convey("a judge resubmission overwrites in place and changes the result", func() {
			perf := f.performance(ctx, t, "Nadia", "Comaneci")
			f.submit(ctx, t, perf.ID, 101, model.DScore, "5.000")
			fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.DScore, ShouldEqual, points.MustParse("5.000"))

			f.submit(ctx, t, perf.ID, 101, model.DScore, "5.800")
			fs, err = f.svc.CalculateFinalScore(ctx, perf.ID, false)
			So(err, ShouldBeNil)
			So(fs.DScore, ShouldEqual, points.MustParse("5.800"))

			scores, _, err := f.svc.ScoresForPerformance(ctx, perf.ID)
			So(err, ShouldBeNil)
			So(scores, ShouldHaveLength, 1)
		})
	})
}

func TestPublicationGate(t *testing.T) {
	Convey("Given a calculated performance", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)
		perf := f.performance(ctx, t, "Rebeca", "Andrade")
		f.seedPanel(ctx, t, perf.ID)

		_, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
		So(err, ShouldBeNil)

		Convey("publishing marks it official", func() {
			n, err := f.svc.Publish(ctx, []int64{perf.ID})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			_, final, err := f.svc.ScoresForPerformance(ctx, perf.ID)
			So(err, ShouldBeNil)
			So(final, ShouldNotBeNil)
			So(final.IsOfficial, ShouldBeTrue)
			So(final.PublishedAt, ShouldNotBeNil)

			Convey("recalculation is refused without an override", func() {
				_, err := f.svc.CalculateFinalScore(ctx, perf.ID, false)
				So(err, ShouldWrap, repository.ErrAlreadyPublished)
			})

			Convey("a forced recalculation succeeds and stays official", func() {
				fs, err := f.svc.CalculateFinalScore(ctx, perf.ID, true)
				So(err, ShouldBeNil)
				So(fs.IsOfficial, ShouldBeTrue)
				So(fs.FinalValue, ShouldEqual, points.MustParse("13.750"))
			})

			Convey("unpublishing reopens it for recalculation", func() {
				n, err := f.svc.Unpublish(ctx, []int64{perf.ID})
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				_, err = f.svc.CalculateFinalScore(ctx, perf.ID, false)
				So(err, ShouldBeNil)
			})
		})

		Convey("bulk publish silently skips ids without a final score", func() {
			other := f.performance(ctx, t, "Simone", "Biles")
			n, err := f.svc.Publish(ctx, []int64{perf.ID, other.ID, 999999})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given an event with scored and unscored performances", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)

		andrade := f.performance(ctx, t, "Rebeca", "Andrade")
		biles := f.performance(ctx, t, "Simone", "Biles")
		lee := f.performance(ctx, t, "Sunisa", "Lee")
		unscored := f.performance(ctx, t, "Jade", "Carey")

		f.seedPanel(ctx, t, andrade.ID)
		f.seedPanel(ctx, t, biles.ID)

		f.submit(ctx, t, lee.ID, 101, model.DScore, "5.000")
		f.submit(ctx, t, lee.ID, 201, model.EScore, "2.000")

		for _, id := range []int64{andrade.ID, biles.ID, lee.ID} {
			_, err := f.svc.CalculateFinalScore(ctx, id, false)
			So(err, ShouldBeNil)
		}

		Convey("scored rows rank by final score with unscored rows last", func() {
			entries, err := f.svc.Leaderboard(ctx, f.event.ID, nil, 0)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 4)

			So(entries[0].Athlete.LastName, ShouldEqual, "Andrade")
			So(entries[1].Athlete.LastName, ShouldEqual, "Biles")
			So(entries[2].Athlete.LastName, ShouldEqual, "Lee")
			So(entries[3].Athlete.LastName, ShouldEqual, "Carey")
			So(entries[3].PerformanceID, ShouldEqual, unscored.ID)

			So(*entries[0].FinalValue, ShouldEqual, points.MustParse("13.750"))
			So(*entries[2].FinalValue, ShouldEqual, points.MustParse("13.000"))
			So(entries[3].FinalValue, ShouldBeNil)

			for i, e := range entries {
				So(e.Rank, ShouldEqual, i+1)
			}
		})

		Convey("tied finals break by surname ascending", func() {
			entries, err := f.svc.Leaderboard(ctx, f.event.ID, nil, 2)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Athlete.LastName, ShouldEqual, "Andrade")
			So(entries[1].Athlete.LastName, ShouldEqual, "Biles")
		})

		Convey("an apparatus filter only returns matching performances", func() {
			vault, err := f.svc.RegisterApparatus(ctx, model.Apparatus{Name: "Vault", Code: "VT"})
			So(err, ShouldBeNil)

			entries, err := f.svc.Leaderboard(ctx, f.event.ID, &vault.ID, 0)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})

		Convey("an unknown event reports not found", func() {
			_, err := f.svc.Leaderboard(ctx, 424242, nil, 0)
			So(err, ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestAsyncRecalculation(t *testing.T) {
	Convey("Given the running ingestion pipeline", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)
		perf := f.performance(ctx, t, "Rebeca", "Andrade")

		Convey("submissions eventually produce a final score without an explicit call", func() {
			f.seedPanel(ctx, t, perf.ID)

			deadline := time.Now().Add(5 * time.Second)
			var final *model.FinalScore
			for time.Now().Before(deadline) {
				_, fs, err := f.svc.ScoresForPerformance(ctx, perf.ID)
				So(err, ShouldBeNil)
				if fs != nil && fs.FinalValue == points.MustParse("13.750") {
					final = fs
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			So(final, ShouldNotBeNil)
			So(final.DScore, ShouldEqual, points.MustParse("5.400"))
			So(final.EScore, ShouldEqual, points.MustParse("8.350"))
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, t)
		f.performance(ctx, t, "Rebeca", "Andrade")

		stats := f.svc.GetStats()
		So(stats["started"], ShouldBeTrue)
		So(stats["totalPerformances"], ShouldEqual, 1)
	})
}
