package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/sovagpt/nhl/internal/api"
	"github.com/sovagpt/nhl/internal/cache"
	"github.com/sovagpt/nhl/internal/goalie"
	"github.com/sovagpt/nhl/internal/pipeline"
)

var fixedNow = time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC)

type stubBuilder struct {
	resp    *pipeline.Response
	err     error
	goalies []goalie.Record
	sawDL   bool
}

func (b *stubBuilder) Build(ctx context.Context) (*pipeline.Response, error) {
	_, b.sawDL = ctx.Deadline()
	return b.resp, b.err
}

func (b *stubBuilder) Goalies(context.Context) []goalie.Record { return b.goalies }

func (b *stubBuilder) Now() time.Time { return fixedNow }

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGamesEndpoint(t *testing.T) {
	Convey("Given a server over a builder", t, func() {
		b := &stubBuilder{resp: &pipeline.Response{
			Success:   true,
			Games:     []pipeline.Game{{HomeTeam: "Boston Bruins", AwayTeam: "Toronto Maple Leafs"}},
			Timestamp: fixedNow.Format(time.RFC3339),
			Sources:   map[string]bool{"dailyfaceoff": true, "goaliepost": false},
		}}
		h := api.NewServer(b).Handler()

		Convey("GET /api/games returns the built response with CORS", func() {
			rec := do(h, http.MethodGet, "/api/games")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(b.sawDL, ShouldBeTrue)

			var body pipeline.Response
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Success, ShouldBeTrue)
			So(body.Games, ShouldHaveLength, 1)
			So(body.Sources["goaliepost"], ShouldBeFalse)
		})

		Convey("OPTIONS is answered with 204 and no body", func() {
			rec := do(h, http.MethodOptions, "/api/games")
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(rec.Body.Len(), ShouldEqual, 0)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("POST is rejected", func() {
			rec := do(h, http.MethodPost, "/api/games")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("A pipeline failure is a 500 with the failure body", func() {
			b.resp, b.err = nil, fmt.Errorf("%w: panic: boom", pipeline.ErrPipeline)
			rec := do(h, http.MethodGet, "/api/games")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")

			var body map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["success"], ShouldEqual, false)
			So(body["games"], ShouldResemble, []any{})
			So(body["error"], ShouldContainSubstring, "boom")
			So(body["timestamp"], ShouldEqual, "2025-01-15T23:00:00Z")
		})
	})
}

func TestGoaliesAndHealth(t *testing.T) {
	Convey("Given a server with goalies", t, func() {
		r := goalie.TBD()
		r.Name, r.Team = "Jeremy Swayman", "BOS"
		h := api.NewServer(&stubBuilder{goalies: []goalie.Record{r}}).Handler()

		Convey("GET /api/goalies lists them", func() {
			rec := do(h, http.MethodGet, "/api/goalies")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"name":"Jeremy Swayman"`)
			So(rec.Body.String(), ShouldContainSubstring, `"success":true`)
		})

		Convey("GET /healthz is ok", func() {
			rec := do(h, http.MethodGet, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"status":"ok"}`)
		})

		Convey("GET /metrics exposes the registry", func() {
			do(h, http.MethodGet, "/healthz")
			rec := do(h, http.MethodGet, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})
}

type failingSnapshots struct{}

func (failingSnapshots) Raw(context.Context) ([]byte, error) { return nil, errors.New("connection refused") }

func TestSnapshotEndpoint(t *testing.T) {
	Convey("Given a snapshot store", t, func() {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		store := cache.NewStore(client, time.Hour)
		h := api.NewServer(&stubBuilder{}, api.WithSnapshots(store)).Handler()

		Convey("Nothing stored is a 404", func() {
			rec := do(h, http.MethodGet, "/api/snapshot")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A stored snapshot is served verbatim", func() {
			So(store.Write(context.Background(), map[string]any{"success": true, "games": []any{}}), ShouldBeNil)
			rec := do(h, http.MethodGet, "/api/snapshot")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, `{"games":[],"success":true}`)
		})

		Convey("A store failure is a 503", func() {
			h := api.NewServer(&stubBuilder{}, api.WithSnapshots(failingSnapshots{})).Handler()
			rec := do(h, http.MethodGet, "/api/snapshot")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})

	Convey("Without a store the snapshot is a 404", t, func() {
		rec := do(api.NewServer(&stubBuilder{}).Handler(), http.MethodGet, "/api/snapshot")
		So(rec.Code, ShouldEqual, http.StatusNotFound)
	})
}
