package workers

import (
	"errors"
	"fmt"
	"os"

	"github.com/getsentry/raven-go"
)

// MiddlewareRaven captures panics from mini worker jobs to sentry
type MiddlewareRaven struct {
	cl *raven.Client
}

// Do runs fn, sending any panic to sentry before re-panicking.
// It is largely a copy-pasta of the raven CapturePanic func, fwiw.
func (r *MiddlewareRaven) Do(fn func() error) error {
	defer func() {
		var packet *raven.Packet
		p := recover()
		switch rval := p.(type) {
		case nil:
			return
		case error:
			packet = raven.NewPacket(rval.Error(), raven.NewException(rval, raven.NewStacktrace(2, 3, nil)))
		default:
			rvalStr := fmt.Sprint(rval)
			packet = raven.NewPacket(rvalStr, raven.NewException(errors.New(rvalStr), raven.NewStacktrace(2, 3, nil)))
		}

		_, ch := r.cl.Capture(packet, map[string]string{})
		<-ch
		panic(p)
	}()

	return fn()
}

// NewMiddlewareRaven builds a *MiddlewareRaven given a sentry DSN
func NewMiddlewareRaven(sentryDSN string) (*MiddlewareRaven, error) {
	cl, err := raven.NewClient(sentryDSN, map[string]string{
		"level":    "error",
		"logger":   "root",
		"dyno":     os.Getenv("DYNO"),
		"hostname": os.Getenv("HOSTNAME"),
	})
	if err != nil {
		return nil, err
	}
	return &MiddlewareRaven{cl: cl}, nil
}
