package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/config"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.Addr = "127.0.0.1:0"
	cfg.AuditWorkers = 1
	cfg.AuditQueueSize = 16
	return cfg
}

// voteCodes casts n votes into a missing session and returns the statuses.
func voteCodes(handler http.Handler, n int) []int {
	codes := make([]int, 0, n)
	for range n {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sessions/none/votes", strings.NewReader(`{"choicePlayerId":"p1"}`))
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestBuild(t *testing.T) {
	convey.Convey("Given a configuration without an auth secret", t, func() {
		ctx := context.Background()
		svc, handler, err := build(ctx, testConfig())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then anonymous callers may manage the roster", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/players/p1", strings.NewReader(`{"Name":"Ash","Active":true}`))
			handler.ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the docs and health routes are mounted", func() {
			for _, path := range []string{"/openapi.yaml", "/healthz", "/stats"} {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})

	convey.Convey("Given a configuration with an auth secret", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.AuthSecret = "s3cret"
		svc, handler, err := build(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then anonymous writes are refused", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/players/p1", strings.NewReader(`{"Name":"Ash"}`))
			handler.ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("Then an admin token is accepted", func() {
			tok, err := auth.NewTokenVerifier("s3cret").IssueToken(auth.Principal{Subject: "a", Role: auth.RoleAdmin}, time.Minute)
			convey.So(err, convey.ShouldBeNil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/players/p1", strings.NewReader(`{"Name":"Ash"}`))
			req.Header.Set("Authorization", "Bearer "+tok)
			handler.ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})

	convey.Convey("Given the default vote rate", t, func() {
		ctx := context.Background()
		svc, handler, err := build(ctx, testConfig())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then a burst of votes from one address is throttled", func() {
			convey.So(voteCodes(handler, 10), convey.ShouldContain, http.StatusTooManyRequests)
		})
	})

	convey.Convey("Given a zero vote rate", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.VoteRatePerSec = 0
		cfg.VoteRateBurst = 0
		svc, handler, err := build(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then votes are never throttled", func() {
			convey.So(voteCodes(handler, 10), convey.ShouldNotContain, http.StatusTooManyRequests)
		})
	})

	convey.Convey("Given role overrides naming an unknown action", t, func() {
		cfg := testConfig()
		cfg.AuthSecret = "s3cret"
		cfg.RoleActions = map[string][]string{"launch": {"admin"}}

		convey.Convey("Then building fails", func() {
			_, _, err := build(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, testConfig()) }()

		convey.Convey("When the context is cancelled", func() {
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}
