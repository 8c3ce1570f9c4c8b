package coalesce_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/salto/internal/domain/coalesce"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCoalescer(t *testing.T) {
	Convey("Given a fresh coalescer", t, func() {
		ctx := context.Background()
		c := coalesce.NewInMemoryCoalescer()

		Convey("When a performance is marked pending for the first time", func() {
			So(c.MarkPending(ctx, 10), ShouldBeFalse)

			Convey("Then a second mark reports it as already pending", func() {
				So(c.MarkPending(ctx, 10), ShouldBeTrue)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And clearing allows a fresh mark", func() {
				c.Clear(ctx, 10)
				So(c.Size(), ShouldEqual, 0)
				So(c.MarkPending(ctx, 10), ShouldBeFalse)
			})
		})

		Convey("When clearing an unknown id", func() {
			c.Clear(ctx, 999)
			So(c.Size(), ShouldEqual, 0)
		})

		Convey("When marked concurrently for the same performance", func() {
			const goroutines = 32
			var wg sync.WaitGroup
			fresh := make(chan bool, goroutines)
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					fresh <- !c.MarkPending(ctx, 42)
				}()
			}
			wg.Wait()
			close(fresh)

			Convey("Then exactly one mark is fresh", func() {
				count := 0
				for f := range fresh {
					if f {
						count++
					}
				}
				So(count, ShouldEqual, 1)
				So(c.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded coalescer", t, func() {
		ctx := context.Background()
		c := coalesce.NewInMemoryCoalescer(coalesce.WithMaxSize(2))

		Convey("When the bound is exceeded", func() {
			So(c.MarkPending(ctx, 1), ShouldBeFalse)
			So(c.MarkPending(ctx, 2), ShouldBeFalse)
			So(c.MarkPending(ctx, 3), ShouldBeFalse)

			Convey("Then the oldest entry was evicted", func() {
				So(c.Size(), ShouldEqual, 2)
				So(c.MarkPending(ctx, 1), ShouldBeFalse) // 1 was evicted, re-markable
			})
		})
	})
}
