package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

// requestLogger logs each request the way negroni-logrus does and
// counts it by route name and status
type requestLogger struct {
	log      logrus.FieldLogger
	router   *mux.Router
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newRequestLogger(log logrus.FieldLogger, router *mux.Router, reg prometheus.Registerer) *requestLogger {
	rl := &requestLogger{
		log:    log,
		router: router,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddalert",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reddalert",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(rl.requests, rl.latency)
	return rl
}

func (rl *requestLogger) ServeHTTP(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	start := time.Now()
	route := rl.routeName(req)

	rl.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"request":    req.RequestURI,
		"remote":     req.RemoteAddr,
		"request_id": req.Header.Get("X-Request-ID"),
	}).Info("started handling request")

	next(w, req)

	took := time.Since(start)
	status := http.StatusOK
	if rw, ok := w.(negroni.ResponseWriter); ok && rw.Status() != 0 {
		status = rw.Status()
	}

	rl.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	rl.latency.WithLabelValues(route).Observe(took.Seconds())

	rl.log.WithFields(logrus.Fields{
		"status":      status,
		"status_text": http.StatusText(status),
		"took":        took,
		"request_id":  req.Header.Get("X-Request-ID"),
	}).Info("completed handling request")
}

func (rl *requestLogger) routeName(req *http.Request) string {
	var match mux.RouteMatch
	if rl.router.Match(req, &match) && match.Route != nil && match.Route.GetName() != "" {
		return match.Route.GetName()
	}
	return "unknown"
}
