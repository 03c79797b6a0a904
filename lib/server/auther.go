package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/feeds"
	"github.com/sirupsen/logrus"
)

const (
	internalAuthHeader = "Reddalert-Internal-Is-Authorized"
)

type serverAuther struct {
	Token string
	log   logrus.FieldLogger
	rt    string
}

func newServerAuther(token string, log logrus.FieldLogger) *serverAuther {
	return &serverAuther{
		Token: token,
		log:   log,
		rt:    feeds.NewUUID().String(),
	}
}

func (sa *serverAuther) Authenticate(w http.ResponseWriter, req *http.Request) bool {
	authHeader := req.Header.Get("Authorization")

	if authHeader != "" && sa.hasValidTokenAuth(authHeader) {
		req.Header.Set(internalAuthHeader, sa.rt)
		sa.log.WithFields(logrus.Fields{
			"request_id": req.Header.Get("X-Request-ID"),
			"path":       req.URL.Path,
		}).Debug("allowing authorized request yey")
		return true
	}

	if authHeader == "" {
		w.Header().Set("WWW-Authenticate", "token")
		sa.log.WithFields(logrus.Fields{
			"request_id": req.Header.Get("X-Request-ID"),
		}).Debug("responding 401 due to empty Authorization header")
		http.Error(w, "NO", http.StatusUnauthorized)
		return false
	}

	http.Error(w, "NO", http.StatusForbidden)
	return false
}

func (sa *serverAuther) hasValidTokenAuth(authHeader string) bool {
	if sa.Token == "" {
		sa.log.Warn("no auth token configured, refusing everything")
		return false
	}

	for _, candidate := range []string{"token " + sa.Token, "token=" + sa.Token} {
		if subtle.ConstantTimeCompare([]byte(authHeader), []byte(candidate)) == 1 {
			sa.log.Debug("token auth matches yey")
			return true
		}
	}

	sa.log.Debug("token auth does not match")
	return false
}
