package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lairofevil/standings/internal/adapters/http/api"
	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel/trace/noop"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const secret = "s3cret"

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) as(p auth.Principal) client {
	tok, err := auth.NewTokenVerifier(secret).IssueToken(p, time.Hour)
	if err != nil {
		c.t.Fatalf("issue token: %v", err)
	}
	c.token = tok
	return c
}

func (c client) do(method, path string, body any) (*http.Response, []byte) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func newServer(t *testing.T, limiter *api.IPRateLimiter) client {
	svc := service.New(
		service.WithPolicy(auth.NewRolePolicy(nil)),
		service.WithLegacyGate(auth.NewLegacyGate("ectoplasm")),
		service.WithTracer(noop.NewTracerProvider().Tracer("test")),
		service.WithAuditWorkers(1),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, auth.NewTokenVerifier(secret), limiter).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		ts.Close()
		svc.Stop()
	})
	return client{t: t, base: ts.URL}
}

var (
	admin   = auth.Principal{Subject: "admin-1", Name: "Warden", Role: auth.RoleAdmin}
	officer = auth.Principal{Subject: "off-1", Name: "Morgan", Role: auth.RoleOfficer}
)

func decodeError(b []byte) map[string]string {
	var m map[string]string
	_ = json.Unmarshal(b, &m)
	return m
}

func TestAPI_RunsAndStandings(t *testing.T) {
	Convey("Given a server with a roster and a round", t, func() {
		c := newServer(t, nil)
		a := c.as(admin)
		resp, _ := a.do(http.MethodPut, "/players/p1", map[string]any{"Name": "Ash", "Active": true})
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		resp, _ = a.do(http.MethodPut, "/players/p2", map[string]any{"Name": "Bea", "Active": true})
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		resp, _ = a.do(http.MethodPost, "/rounds", map[string]any{"id": "w1", "name": "Week 1"})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)

		Convey("When an officer submits a run", func() {
			resp, body := c.as(officer).do(http.MethodPost, "/runs", map[string]any{
				"playerId":     "p1",
				"roundId":      "w1",
				"Objective1":   true,
				"Objective2":   true,
				"GhostPicture": true,
				"Survived":     true,
			})

			Convey("Then it is scored and shows up in the standings", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				var run map[string]any
				So(json.Unmarshal(body, &run), ShouldBeNil)
				So(run["Marks"], ShouldEqual, 12.0)

				resp, body = c.do(http.MethodGet, "/rounds/w1/standings", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var view service.StandingsView
				So(json.Unmarshal(body, &view), ShouldBeNil)
				So(view.Rows, ShouldHaveLength, 1)
				So(view.Rows[0].SubjectID, ShouldEqual, "p1")
				So(view.Rows[0].Score, ShouldEqual, 12.0)
				So(view.Names["p1"], ShouldEqual, "Ash")
			})

			Convey("Then it can be fetched and deleted by an admin", func() {
				var run map[string]any
				So(json.Unmarshal(body, &run), ShouldBeNil)
				id, _ := run["Id"].(string)

				resp, _ := c.do(http.MethodGet, "/runs/"+id, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				resp, _ = c.as(officer).do(http.MethodDelete, "/runs/"+id, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusForbidden)

				resp, _ = a.do(http.MethodDelete, "/runs/"+id, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				resp, _ = c.do(http.MethodGet, "/runs/"+id, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a run is submitted without a token", func() {
			resp, body := c.do(http.MethodPost, "/runs", map[string]any{"playerId": "p1", "roundId": "w1"})

			Convey("Then it is unauthenticated", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
				So(decodeError(body)["code"], ShouldEqual, "unauthenticated")
			})
		})

		Convey("When the token is bad", func() {
			bad := c
			bad.token = "garbage"
			resp, _ := bad.do(http.MethodGet, "/players", nil)

			Convey("Then the request is rejected before the handler", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the body is not JSON", func() {
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, c.base+"/rounds", bytes.NewBufferString("{"))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			resp.Body.Close()

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When standings are grouped by an unknown key", func() {
			resp, _ := c.do(http.MethodGet, "/rounds/w1/standings?by=guild", nil)

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When standings are exported", func() {
			resp, body := c.do(http.MethodGet, "/rounds/w1/standings.png", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldEqual, "image/png")
			So(bytes.HasPrefix(body, []byte("\x89PNG")), ShouldBeTrue)

			resp, body = c.do(http.MethodGet, "/rounds/w1/standings.xlsx", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(bytes.HasPrefix(body, []byte("PK")), ShouldBeTrue)

			resp, _ = c.do(http.MethodGet, "/rounds/nope/standings.xlsx", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAPI_Sessions(t *testing.T) {
	Convey("Given an open ally pick", t, func() {
		c := newServer(t, nil)
		a := c.as(admin)
		for _, id := range []string{"p1", "p2"} {
			resp, _ := a.do(http.MethodPut, "/players/"+id, map[string]any{"Name": id, "Active": true})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		}
		resp, body := a.do(http.MethodPost, "/sessions", map[string]any{"type": "pick-ally"})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		var vs map[string]any
		So(json.Unmarshal(body, &vs), ShouldBeNil)
		id, _ := vs["Id"].(string)
		So(id, ShouldNotBeEmpty)

		voter := c.as(auth.Principal{Subject: "p1", Name: "Ash", Role: auth.RolePlayer})

		Convey("When a player votes", func() {
			resp, _ := voter.do(http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"choicePlayerId": "p2"})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			Convey("Then the tally and reveal show it", func() {
				resp, body := a.do(http.MethodGet, "/sessions/"+id+"/tally", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var view map[string]any
				So(json.Unmarshal(body, &view), ShouldBeNil)
				So(view["topChoiceId"], ShouldEqual, "p2")

				resp, _ = a.do(http.MethodGet, "/sessions/"+id+"/votes", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})

			Convey("Then votes after closing conflict", func() {
				resp, _ := a.do(http.MethodPost, "/sessions/"+id+"/close", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				resp, body := voter.do(http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"choicePlayerId": "p1"})
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(decodeError(body)["code"], ShouldEqual, "session_closed")
			})
		})

		Convey("When the choice is not on the roster", func() {
			resp, _ := voter.do(http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"choicePlayerId": "ghost"})

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session is deleted", func() {
			resp, _ := a.do(http.MethodDelete, "/sessions/"+id, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			Convey("Then it is gone", func() {
				resp, _ := c.do(http.MethodGet, "/sessions/"+id+"/choices", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given an anonymous vote-out", t, func() {
		c := newServer(t, nil)
		a := c.as(admin)
		_, body := a.do(http.MethodPost, "/sessions", map[string]any{"type": "vote-out"})
		var vs map[string]any
		So(json.Unmarshal(body, &vs), ShouldBeNil)
		id, _ := vs["Id"].(string)

		Convey("Then votes cannot be revealed", func() {
			resp, body := a.do(http.MethodGet, "/sessions/"+id+"/votes", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
			So(decodeError(body)["code"], ShouldEqual, "anonymous_session")
		})
	})
}

func TestAPI_VoteRateLimit(t *testing.T) {
	Convey("Given a limiter with a burst of one", t, func() {
		c := newServer(t, api.NewIPRateLimiter(0.001, 1))
		a := c.as(admin)
		_, body := a.do(http.MethodPost, "/sessions", map[string]any{"type": "pick-ally"})
		var vs map[string]any
		So(json.Unmarshal(body, &vs), ShouldBeNil)
		id, _ := vs["Id"].(string)

		Convey("Then the second vote from the same address is throttled", func() {
			first, _ := a.do(http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"choicePlayerId": "nobody"})
			So(first.StatusCode, ShouldEqual, http.StatusBadRequest)

			second, body := a.do(http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"choicePlayerId": "nobody"})
			So(second.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(body)["code"], ShouldEqual, "rate_limited")
		})
	})
}

func TestAPI_SeriesAuditAndStats(t *testing.T) {
	Convey("Given a running server", t, func() {
		c := newServer(t, nil)
		a := c.as(admin)

		Convey("When a series is resolved from recorded outcomes", func() {
			resp, body := a.do(http.MethodPost, "/series/resolve", map[string]any{
				"games": []map[string]any{{"outcome": "Player 1"}, {"outcome": "Player 1"}},
			})

			Convey("Then player 1 wins without a third game", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var res service.SeriesResult
				So(json.Unmarshal(body, &res), ShouldBeNil)
				So(string(res.Winner), ShouldEqual, "Player 1")
				So(res.Game3Required, ShouldBeFalse)
			})
		})

		Convey("When a series names an unknown outcome", func() {
			resp, body := a.do(http.MethodPost, "/series/resolve", map[string]any{
				"games": []map[string]any{{"outcome": "player 1"}},
			})

			Convey("Then it is a bad request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(decodeError(body)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When an audit is requested", func() {
			resp, body := a.do(http.MethodPost, "/audit", nil)

			Convey("Then it is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				var rep service.AuditReport
				So(json.Unmarshal(body, &rep), ShouldBeNil)
				So(rep.Queued, ShouldEqual, 0)
			})
		})

		Convey("When stats and health are fetched", func() {
			resp, body := c.do(http.MethodGet, "/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(body, &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)

			resp, _ = c.do(http.MethodGet, "/healthz", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler that fails", t, func() {
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("Then the status passes through", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			So(rec.Code, ShouldEqual, http.StatusTeapot)
		})
	})
}
