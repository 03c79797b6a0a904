package negroniraven

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/raven-go"
	"github.com/re-pronin/reddalert/lib"
	"github.com/sirupsen/logrus"
)

// Middleware sends panics raised further down the handler chain to
// sentry and then re-panics
type Middleware struct {
	cl  *raven.Client
	log logrus.FieldLogger
}

// NewMiddleware builds a *Middleware given a sentry DSN, which may be
// empty
func NewMiddleware(sentryDSN string, log logrus.FieldLogger) (*Middleware, error) {
	cl, err := raven.NewClient(sentryDSN, nil)
	if err != nil {
		return nil, err
	}

	return &Middleware{cl: cl, log: log}, nil
}

func (mw *Middleware) ServeHTTP(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	defer func() {
		var packet *raven.Packet
		tags := map[string]string{"level": "panic"}

		p := recover()
		switch rval := p.(type) {
		case nil:
			return
		case error:
			packet = raven.NewPacket(rval.Error(), raven.NewException(rval, raven.NewStacktrace(2, 3, nil)), raven.NewHttp(req))
		case *logrus.Entry:
			entryErr, ok := rval.Data["err"].(error)
			if !ok {
				entryErr = errors.New(rval.Message)
			}

			packet = raven.NewPacket(rval.Message, raven.NewException(entryErr, raven.NewStacktrace(2, 3, nil)), raven.NewHttp(req))
		default:
			rvalStr := fmt.Sprint(rval)
			packet = raven.NewPacket(rvalStr, raven.NewException(errors.New(rvalStr), raven.NewStacktrace(2, 3, nil)), raven.NewHttp(req))
		}

		_ = lib.SendRavenPacket(packet, mw.cl, mw.log, tags)
		panic(p)
	}()

	next(w, req)
}
