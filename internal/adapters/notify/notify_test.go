package notify_test

import (
	"context"
	"testing"

	"github.com/okian/salto/internal/adapters/notify"
	"github.com/okian/salto/internal/domain/points"
	"github.com/okian/salto/pkg/logger"
	"github.com/okian/salto/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestBroadcaster(t *testing.T) {
	Convey("Given a broadcaster with two subscribers", t, func() {
		ctx := context.Background()
		b := notify.NewBroadcaster(4)

		ch1, cancel1 := b.Subscribe()
		ch2, cancel2 := b.Subscribe()
		defer cancel1()
		defer cancel2()

		So(b.SubscriberCount(), ShouldEqual, 2)

		Convey("When a change is notified", func() {
			final := points.MustParse("13.750")
			c := notify.NewChange(notify.KindScoreChanged, 1, 2, 3, &final)
			b.Notify(ctx, c)

			Convey("Then every subscriber receives it", func() {
				got1 := <-ch1
				got2 := <-ch2
				So(got1.PerformanceID, ShouldEqual, 1)
				So(got1.ApparatusID, ShouldEqual, 2)
				So(got1.EventID, ShouldEqual, 3)
				So(got1.Kind, ShouldEqual, notify.KindScoreChanged)
				So(got1.ChangeID, ShouldNotBeEmpty)
				So(got2.ChangeID, ShouldEqual, got1.ChangeID)
			})
		})

		Convey("When a subscriber cancels", func() {
			cancel1()
			So(b.SubscriberCount(), ShouldEqual, 1)

			Convey("Then its channel is closed", func() {
				_, open := <-ch1
				So(open, ShouldBeFalse)
			})

			Convey("And cancelling twice is safe", func() {
				cancel1()
				So(b.SubscriberCount(), ShouldEqual, 1)
			})
		})

		Convey("When a subscriber's buffer is full", func() {
			for i := 0; i < 10; i++ {
				b.Notify(ctx, notify.NewChange(notify.KindPublished, int64(i), 0, 0, nil))
			}

			Convey("Then Notify never blocks and the buffer holds the earliest changes", func() {
				first := <-ch2
				So(first.PerformanceID, ShouldEqual, 0)
			})
		})
	})
}

// notificationsSent reads the change notification counter from the registry.
func notificationsSent(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "salto_scoring_notifications_sent_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestNotificationCounter(t *testing.T) {
	Convey("Given the change notification counter", t, func() {
		ctx := context.Background()

		Convey("a broadcast counts once however many subscribers receive it", func() {
			b := notify.NewBroadcaster(4)
			_, cancel1 := b.Subscribe()
			_, cancel2 := b.Subscribe()
			defer cancel1()
			defer cancel2()

			before := notificationsSent(t)
			b.Notify(ctx, notify.NewChange(notify.KindScoreChanged, 1, 2, 3, nil))
			So(notificationsSent(t)-before, ShouldEqual, 1.0)
		})

		Convey("a logged change counts once", func() {
			n := notify.NewLogNotifier(logger.Get())
			before := notificationsSent(t)
			n.Notify(ctx, notify.NewChange(notify.KindPublished, 4, 5, 6, nil))
			So(notificationsSent(t)-before, ShouldEqual, 1.0)
		})
	})
}
