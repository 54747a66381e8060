package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/heatcheck/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When claiming a submission", func() {
			d := dedupe.NewInMemoryDeduper()
			original, seen := d.Claim(ctx, "sub-1", "batch-a")

			Convey("Then the first claim should win", func() {
				So(seen, ShouldBeFalse)
				So(original, ShouldEqual, "batch-a")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a retry should return the original batch", func() {
				original, seen := d.Claim(ctx, "sub-1", "batch-b")
				So(seen, ShouldBeTrue)
				So(original, ShouldEqual, "batch-a")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a released claim should be claimable again", func() {
				d.Release(ctx, "sub-1")
				So(d.Size(), ShouldEqual, 0)

				original, seen := d.Claim(ctx, "sub-1", "batch-c")
				So(seen, ShouldBeFalse)
				So(original, ShouldEqual, "batch-c")
			})

			Convey("And releasing an unknown id should be a no-op", func() {
				d.Release(ctx, "missing")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 1; i <= 4; i++ {
				d.Claim(ctx, fmt.Sprintf("sub-%d", i), fmt.Sprintf("batch-%d", i))
			}

			Convey("Then the oldest claim should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.Claim(ctx, "sub-4", "x")
				So(seen, ShouldBeTrue)
				_, seen = d.Claim(ctx, "sub-1", "batch-1b")
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When a released id is claimed again in bounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.Claim(ctx, "sub-1", "batch-1")
			d.Release(ctx, "sub-1")
			d.Claim(ctx, "sub-2", "batch-2")
			d.Claim(ctx, "sub-1", "batch-1b")

			Convey("Then the stale ring slot should not evict the new claim", func() {
				original, seen := d.Claim(ctx, "sub-1", "y")
				So(seen, ShouldBeTrue)
				So(original, ShouldEqual, "batch-1b")
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When running unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 500; i++ {
				d.Claim(ctx, fmt.Sprintf("sub-%d", i), "b")
			}

			Convey("Then nothing should be evicted", func() {
				So(d.Size(), ShouldEqual, 500)
			})
		})

		Convey("When many goroutines claim the same id", func() {
			d := dedupe.NewInMemoryDeduper()
			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				winner int
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if _, seen := d.Claim(ctx, "shared", fmt.Sprintf("batch-%d", i)); !seen {
						mu.Lock()
						winner++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one should win", func() {
				So(winner, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
