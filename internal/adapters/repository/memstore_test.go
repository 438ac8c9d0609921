package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/lairofevil/standings/internal/adapters/repository"
	"github.com/lairofevil/standings/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *repository.MemoryStore {
	s := repository.NewMemoryStore(context.Background(), repository.WithMetricsUpdateInterval(time.Hour))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore_Runs(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := newStore(t)

		Convey("When runs are inserted", func() {
			So(s.InsertRun(ctx, model.ScoredRun{ID: "r1", PlayerID: "p1", RoundID: "w1", Marks: 10}), ShouldBeNil)
			So(s.InsertRun(ctx, model.ScoredRun{ID: "r2", PlayerID: "p2", RoundID: "w1", Marks: 4}), ShouldBeNil)
			So(s.InsertRun(ctx, model.ScoredRun{ID: "r3", PlayerID: "p1", RoundID: "w2", Marks: 7}), ShouldBeNil)

			Convey("Then they can be read back and filtered", func() {
				run, err := s.GetRun(ctx, "r2")
				So(err, ShouldBeNil)
				So(run.Marks, ShouldEqual, 4)

				byRound, _ := s.ListRunsByRound(ctx, "w1")
				So(byRound, ShouldHaveLength, 2)
				So(byRound[0].ID, ShouldEqual, "r1")

				byPlayer, _ := s.ListRunsByPlayer(ctx, "p1")
				So(byPlayer, ShouldHaveLength, 2)
				So(s.Count(ctx), ShouldEqual, 3)
			})

			Convey("Then a duplicate id is rejected", func() {
				err := s.InsertRun(ctx, model.ScoredRun{ID: "r1"})
				So(err, ShouldEqual, repository.ErrConflict)
			})

			Convey("Then deleting removes the run", func() {
				So(s.DeleteRun(ctx, "r1"), ShouldBeNil)
				_, err := s.GetRun(ctx, "r1")
				So(err, ShouldEqual, repository.ErrNotFound)
				So(s.DeleteRun(ctx, "r1"), ShouldEqual, repository.ErrNotFound)
				all, _ := s.AllRuns(ctx)
				So(all, ShouldHaveLength, 2)
			})
		})
	})
}

func TestMemoryStore_Roster(t *testing.T) {
	Convey("Given a store with a roster", t, func() {
		ctx := context.Background()
		s := newStore(t)
		So(s.UpsertPlayer(ctx, model.Player{ID: "p1", Name: "Ash", Active: true}), ShouldBeNil)
		So(s.UpsertPlayer(ctx, model.Player{ID: "p2", Name: "Bea", Active: true}), ShouldBeNil)

		Convey("When a player is updated", func() {
			So(s.UpsertPlayer(ctx, model.Player{ID: "p1", Name: "Ash", Active: true, Immune: true}), ShouldBeNil)

			Convey("Then the change is kept in place", func() {
				players, _ := s.ListPlayers(ctx)
				So(players, ShouldHaveLength, 2)
				So(players[0].Immune, ShouldBeTrue)
			})
		})

		Convey("When rounds and money results are added", func() {
			So(s.InsertRound(ctx, model.Round{ID: "w1", Currency: model.CurrencyMoney}), ShouldBeNil)
			So(s.InsertRound(ctx, model.Round{ID: "w1"}), ShouldEqual, repository.ErrConflict)
			So(s.InsertMoneyResult(ctx, model.MoneyResult{ID: "m1", RoundID: "w1", SubjectID: "p1", Amount: 50}), ShouldBeNil)
			So(s.InsertMoneyResult(ctx, model.MoneyResult{ID: "m2", RoundID: "w9", SubjectID: "p1", Amount: 10}), ShouldBeNil)

			Convey("Then results are listed per round", func() {
				r, err := s.GetRound(ctx, "w1")
				So(err, ShouldBeNil)
				So(r.Currency, ShouldEqual, model.CurrencyMoney)
				results, _ := s.ListMoneyResults(ctx, "w1")
				So(results, ShouldHaveLength, 1)
				_, err = s.GetRound(ctx, "nope")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When a team is stored", func() {
			members := []string{"p1", "p2"}
			So(s.UpsertTeam(ctx, model.Team{ID: "red", Members: members}), ShouldBeNil)
			members[0] = "changed"

			Convey("Then later edits to the caller's slice do not leak in", func() {
				teams, _ := s.ListTeams(ctx)
				So(teams[0].Members, ShouldResemble, []string{"p1", "p2"})
			})

			Convey("Then edits to a listed team do not reach the store", func() {
				teams, _ := s.ListTeams(ctx)
				teams[0].Members[0] = "p9"

				again, _ := s.ListTeams(ctx)
				So(again[0].Members, ShouldResemble, []string{"p1", "p2"})
			})
		})
	})
}

func TestMemoryStore_Sessions(t *testing.T) {
	Convey("Given an open session", t, func() {
		ctx := context.Background()
		s := newStore(t)
		vs := model.NewVoteSession("s1", model.SessionPickAlly, t0)
		So(s.InsertSession(ctx, vs), ShouldBeNil)

		Convey("When voters vote and one changes their mind", func() {
			So(s.UpsertVote(ctx, model.Vote{SessionID: "s1", VoterUID: "u1", ChoicePlayerID: "A", CreatedAt: t0}), ShouldBeNil)
			So(s.UpsertVote(ctx, model.Vote{SessionID: "s1", VoterUID: "u2", ChoicePlayerID: "B", CreatedAt: t0.Add(time.Second)}), ShouldBeNil)
			So(s.UpsertVote(ctx, model.Vote{SessionID: "s1", VoterUID: "u1", ChoicePlayerID: "C", CreatedAt: t0.Add(2 * time.Second)}), ShouldBeNil)

			Convey("Then each voter has one vote in its original slot", func() {
				votes, err := s.ListVotes(ctx, "s1")
				So(err, ShouldBeNil)
				So(votes, ShouldHaveLength, 2)
				So(votes[0].VoterUID, ShouldEqual, "u1")
				So(votes[0].ChoicePlayerID, ShouldEqual, "C")
			})
		})

		Convey("When the session is closed", func() {
			So(s.CloseSession(ctx, vs.Close(t0.Add(time.Minute))), ShouldBeNil)

			Convey("Then votes and a second close are refused", func() {
				err := s.UpsertVote(ctx, model.Vote{SessionID: "s1", VoterUID: "u1", ChoicePlayerID: "A"})
				So(err, ShouldEqual, repository.ErrClosed)
				So(s.CloseSession(ctx, vs.Close(t0.Add(2*time.Minute))), ShouldEqual, repository.ErrClosed)

				got, _ := s.GetSession(ctx, "s1")
				So(got.Closed, ShouldBeTrue)
			})
		})

		Convey("When the session is deleted", func() {
			removed, err := s.DeleteSession(ctx, "s1")
			So(err, ShouldBeNil)
			So(removed.ID, ShouldEqual, "s1")

			Convey("Then it and its votes are gone", func() {
				_, err := s.GetSession(ctx, "s1")
				So(err, ShouldEqual, repository.ErrNotFound)
				_, err = s.ListVotes(ctx, "s1")
				So(err, ShouldEqual, repository.ErrNotFound)
				So(s.UpsertVote(ctx, model.Vote{SessionID: "s1", VoterUID: "u1"}), ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}
