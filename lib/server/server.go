package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/phyber/negroni-gzip/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/re-pronin/reddalert/lib"
	"github.com/re-pronin/reddalert/lib/db"
	"github.com/re-pronin/reddalert/lib/server/jsonapi"
	"github.com/re-pronin/reddalert/lib/server/negroniraven"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

const (
	shutdownTimeout = 10 * time.Second
)

var (
	errMissingInstanceID = fmt.Errorf("missing instance id")
	errNoSuchReport      = fmt.Errorf("no report for instance")
	errKaboom            = fmt.Errorf("simulated kaboom ʕノ•ᴥ•ʔノ ︵ ┻━┻")
)

type server struct {
	addr, sentryDSN string

	log     *logrus.Logger
	auther  *serverAuther
	pool    *redis.Pool
	reports db.ReportFetcherStorer
	cursors db.CursorFetcherStorer
	reg     *prometheus.Registry

	n *negroni.Negroni
	r *mux.Router
	s *http.Server

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

func newServer(cfg *Config) (*server, error) {
	log := logrus.New()
	if cfg.Debug {
		log.Level = logrus.DebugLevel
	}

	pool, err := db.BuildRedisPool(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := &server{
		addr:      cfg.Addr,
		sentryDSN: cfg.SentryDSN,

		log:     log,
		auther:  newServerAuther(cfg.AuthToken, log),
		pool:    pool,
		reports: db.NewReports(pool, lib.PluginName, log),
		cursors: db.NewCursors(pool, log),
		reg:     reg,

		n: negroni.New(),
		r: mux.NewRouter(),
		s: &http.Server{Addr: cfg.Addr},

		shutdown: make(chan struct{}),
	}

	return srv, nil
}

func (srv *server) Setup() {
	srv.setupRoutes()
	srv.setupMiddleware()
}

func (srv *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	srv.n.ServeHTTP(w, req)
}

// Run serves until ctx is done or a shutdown is requested over http,
// then drains in-flight requests
func (srv *server) Run(ctx context.Context) error {
	defer srv.pool.Close()

	srv.s.Handler = srv.n

	errCh := make(chan error, 1)
	go func() {
		srv.log.WithField("addr", srv.addr).Info("Listening")
		errCh <- srv.s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	case <-srv.shutdown:
	}

	srv.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.s.Shutdown(shutdownCtx)
}

func (srv *server) requestShutdown() {
	srv.shutdownOnce.Do(func() { close(srv.shutdown) })
}

func (srv *server) setupRoutes() {
	srv.r.HandleFunc(`/`, srv.handleGetRoot).Methods("GET").Name("ohai")
	srv.r.HandleFunc(`/`, srv.ifAuth(srv.handleDeleteRoot)).Methods("DELETE").Name("shutdown")
	srv.r.Handle(`/metrics`, promhttp.HandlerFor(srv.reg, promhttp.HandlerOpts{})).Methods("GET").Name("metrics")
	srv.r.HandleFunc(`/kaboom`, srv.ifAuth(srv.handleKaboom)).Methods("POST").Name("kaboom")
	srv.r.HandleFunc(`/reports`, srv.ifAuth(srv.handleReports)).Methods("GET").Name("reports")
	srv.r.HandleFunc(`/reports/{instance_id}`, srv.ifAuth(srv.handleReportByInstanceID)).Methods("GET").Name("reports-by-instance-id")
	srv.r.HandleFunc(`/cursor`, srv.ifAuth(srv.handleCursor)).Methods("GET").Name("cursor")
}

func (srv *server) setupMiddleware() {
	srv.n.Use(negroni.NewRecovery())
	srv.n.Use(newRequestLogger(srv.log, srv.r, srv.reg))
	srv.n.Use(gzip.Gzip(gzip.DefaultCompression))
	nr, err := negroniraven.NewMiddleware(srv.sentryDSN, srv.log)
	if err != nil {
		panic(err)
	}
	srv.n.Use(nr)
	srv.n.UseHandler(srv.r)
}

func (srv *server) ifAuth(f func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		if !srv.auther.Authenticate(w, req) {
			return
		}

		f(w, req)
	}
}

func (srv *server) handleGetRoot(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ohai\n")
}

func (srv *server) handleDeleteRoot(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusNoContent)
	srv.requestShutdown()
}

func (srv *server) handleKaboom(w http.ResponseWriter, req *http.Request) {
	panic(errKaboom)
}

func (srv *server) handleReports(w http.ResponseWriter, req *http.Request) {
	reports, err := srv.reports.Fetch(nil)
	if err != nil {
		jsonapi.Error(w, err, http.StatusInternalServerError)
		return
	}

	jsonapi.Respond(w, &lib.ReportsCollection{Reports: reports}, http.StatusOK)
}

func (srv *server) handleReportByInstanceID(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	instanceID, ok := vars["instance_id"]
	if !ok || instanceID == "" {
		jsonapi.Error(w, errMissingInstanceID, http.StatusBadRequest)
		return
	}

	reports, err := srv.reports.Fetch(map[string]string{"instance_id": instanceID})
	if err != nil {
		jsonapi.Error(w, err, http.StatusInternalServerError)
		return
	}

	if len(reports) == 0 {
		jsonapi.Error(w, errNoSuchReport, http.StatusNotFound)
		return
	}

	jsonapi.Respond(w, &lib.ReportsCollection{Reports: reports}, http.StatusOK)
}

func (srv *server) handleCursor(w http.ResponseWriter, req *http.Request) {
	cursor, err := srv.cursors.Fetch(lib.PluginName)
	if err != nil {
		jsonapi.Error(w, err, http.StatusInternalServerError)
		return
	}

	lastPass, err := srv.reports.LastPass()
	if err != nil {
		srv.log.WithField("err", err).Error("failed to fetch last pass")
		jsonapi.Error(w, err, http.StatusInternalServerError)
		return
	}

	jsonapi.Respond(w, map[string]interface{}{
		"plugin":    lib.PluginName,
		"cursor":    cursor,
		"last_pass": lastPass,
	}, http.StatusOK)
}
