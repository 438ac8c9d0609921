package series_test

import (
	"testing"

	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/series"
	. "github.com/smartystreets/goconvey/convey"
)

func marks(n int) *int { return &n }

func TestResolve(t *testing.T) {
	Convey("Given a series", t, func() {
		Convey("When player 1 takes the first two games", func() {
			games := []model.Outcome{model.OutcomePlayer1, model.OutcomePlayer1}

			Convey("Then player 1 wins and game 3 is not needed", func() {
				So(series.Resolve(games), ShouldEqual, model.OutcomePlayer1)
				So(series.Game3Required(games), ShouldBeFalse)
			})
		})

		Convey("When the games split and the third is a tie", func() {
			games := []model.Outcome{model.OutcomePlayer1, model.OutcomePlayer2, model.OutcomeTie}

			Convey("Then the series is a tie", func() {
				So(series.Resolve(games), ShouldEqual, model.OutcomeTie)
				So(series.Game3Required(games[:2]), ShouldBeTrue)
			})
		})

		Convey("When nothing has been played", func() {
			Convey("Then the series is a tie", func() {
				So(series.Resolve(nil), ShouldEqual, model.OutcomeTie)
				So(series.Game3Required(nil), ShouldBeTrue)
			})
		})

		Convey("When games are still pending", func() {
			games := []model.Outcome{model.OutcomePending, model.OutcomePlayer2, model.OutcomePending}

			Convey("Then pending games are ignored", func() {
				So(series.Resolve(games), ShouldEqual, model.OutcomePlayer2)
			})
		})

		Convey("When more than three games are supplied", func() {
			games := []model.Outcome{
				model.OutcomePlayer1, model.OutcomePlayer2, model.OutcomeTie,
				model.OutcomePlayer2, model.OutcomePlayer2,
			}

			Convey("Then only the first three count", func() {
				So(series.Resolve(games), ShouldEqual, model.OutcomeTie)
			})
		})

		Convey("When the first two games were tied", func() {
			games := []model.Outcome{model.OutcomeTie, model.OutcomeTie}

			Convey("Then game 3 is still required", func() {
				So(series.Game3Required(games), ShouldBeTrue)
			})
		})
	})
}

func TestDeriveGame(t *testing.T) {
	Convey("Given a single game", t, func() {
		Convey("When an outcome was recorded", func() {
			game := model.SeriesGame{Outcome: model.OutcomePlayer2}

			Convey("Then it overrides the marks", func() {
				d := series.DeriveGame(game, marks(20), marks(5))
				So(d.Outcome, ShouldEqual, model.OutcomePlayer2)
				So(d.Source, ShouldEqual, model.SourceExplicit)
			})
		})

		Convey("When only marks are known", func() {
			Convey("Then the higher mark wins", func() {
				d := series.DeriveGame(model.SeriesGame{}, marks(20), marks(5))
				So(d.Outcome, ShouldEqual, model.OutcomePlayer1)
				So(d.Source, ShouldEqual, model.SourceDerived)

				d = series.DeriveGame(model.SeriesGame{Outcome: model.OutcomePending}, marks(9), marks(9))
				So(d.Outcome, ShouldEqual, model.OutcomeTie)
			})
		})

		Convey("When a run is missing", func() {
			Convey("Then the game stays pending", func() {
				d := series.DeriveGame(model.SeriesGame{}, marks(12), nil)
				So(d.Outcome, ShouldEqual, model.OutcomePending)
				So(d.Source, ShouldEqual, model.SourceNone)
			})
		})
	})
}
