package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
			)

			Convey("Then its collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.adapterFetches.WithLabelValues("schedule", OutcomeOK).Inc()
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_adapter_fetches_total")
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When an adapter fetch is recorded", func() {
			before := testutil.ToFloat64(current().adapterFetches.WithLabelValues("odds", OutcomeError))
			RecordAdapterFetch("odds", OutcomeError, 12, 0)

			Convey("Then the counter increases and the records gauge is set", func() {
				So(testutil.ToFloat64(current().adapterFetches.WithLabelValues("odds", OutcomeError)), ShouldEqual, before+1)
				So(testutil.ToFloat64(current().adapterRecords.WithLabelValues("odds")), ShouldEqual, 0)
			})
		})

		Convey("When cache lookups are recorded", func() {
			before := testutil.ToFloat64(current().cacheLookups.WithLabelValues("dailyfaceoff", CacheStale))
			RecordCacheLookup("dailyfaceoff", CacheStale)
			RecordCacheLookup("dailyfaceoff", CacheStale)

			Convey("Then each result is counted", func() {
				So(testutil.ToFloat64(current().cacheLookups.WithLabelValues("dailyfaceoff", CacheStale)), ShouldEqual, before+2)
			})
		})

		Convey("When games are built", func() {
			UpdateGamesBuilt(7)

			Convey("Then the gauge reflects the last run", func() {
				So(testutil.ToFloat64(current().gamesBuilt), ShouldEqual, 7)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured process-wide registry", t, func() {
		Configure(WithNamespace("edgetest"), WithHistogramBuckets([]float64{10, 100}))
		defer Configure()

		RecordHTTPRequest("games", "GET", "200", 42)

		Convey("Then /metrics gathers collectors under the new namespace", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var found bool
			for _, f := range families {
				if f.GetName() == "edgetest_http_request_duration_milliseconds" {
					found = true
					So(f.GetMetric()[0].GetHistogram().GetBucket(), ShouldHaveLength, 2)
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
