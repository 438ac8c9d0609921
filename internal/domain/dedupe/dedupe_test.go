package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/lairofevil/standings/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a submission key is new", func() {
			runID, seen := d.Remember(ctx, "sub-1", "run-1")

			Convey("Then it is recorded against the run", func() {
				So(seen, ShouldBeFalse)
				So(runID, ShouldEqual, "run-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same key is submitted again", func() {
			d.Remember(ctx, "sub-1", "run-1")
			runID, seen := d.Remember(ctx, "sub-1", "run-2")

			Convey("Then the first run is returned", func() {
				So(seen, ShouldBeTrue)
				So(runID, ShouldEqual, "run-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is forgotten", func() {
			d.Remember(ctx, "sub-1", "run-1")
			d.Forget(ctx, "sub-1")
			d.Forget(ctx, "never-seen")
			runID, seen := d.Remember(ctx, "sub-1", "run-2")

			Convey("Then a retry is accepted as new", func() {
				So(seen, ShouldBeFalse)
				So(runID, ShouldEqual, "run-2")
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.Remember(ctx, "a", "run-a")
		d.Remember(ctx, "b", "run-b")
		d.Remember(ctx, "c", "run-c")

		Convey("Then the oldest key is evicted first", func() {
			So(d.Size(), ShouldEqual, 2)
			_, seen := d.Remember(ctx, "b", "x")
			So(seen, ShouldBeTrue)
			_, seen = d.Remember(ctx, "a", "x")
			So(seen, ShouldBeFalse)
		})
	})

	Convey("Given concurrent submissions with one key", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, seen := d.Remember(ctx, "same", fmt.Sprintf("run-%d", i)); !seen {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one is accepted", func() {
			So(fresh, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
