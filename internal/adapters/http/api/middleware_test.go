package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/heatcheck/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped in the metrics middleware", t, func() {
		So(logger.Init(), ShouldBeNil)
		status := http.StatusOK
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("Then the first written status should reach the client", func() {
			for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
				status = code
				w := httptest.NewRecorder()
				So(func() { h(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody)) }, ShouldNotPanic)
				So(w.Code, ShouldEqual, code)
			}
		})
	})

	Convey("Given error statuses", t, func() {
		cases := map[int][2]string{
			http.StatusBadRequest:            {"client_error", "medium"},
			http.StatusNotFound:              {"not_found", "low"},
			http.StatusMethodNotAllowed:      {"method_not_allowed", "low"},
			http.StatusConflict:              {"conflict", "medium"},
			http.StatusRequestEntityTooLarge: {"too_large", "medium"},
			http.StatusInternalServerError:   {"server_error", "high"},
			http.StatusServiceUnavailable:    {"unavailable", "high"},
		}

		Convey("Then each should map to its type and severity", func() {
			for code, want := range cases {
				typ, sev := classifyStatus(code)
				So(typ, ShouldEqual, want[0])
				So(sev, ShouldEqual, want[1])
			}
		})
	})
}
