package lib

import (
	"github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"
)

// SendRavenPacket encapsulates the raven packet send, plus logging
// around errors and such
func SendRavenPacket(packet *raven.Packet, cl *raven.Client, log logrus.FieldLogger, tags map[string]string) error {
	log.WithFields(logrus.Fields{
		"packet": packet,
	}).Info("sending sentry packet")

	if tags == nil {
		tags = map[string]string{}
	}

	eventID, ch := cl.Capture(packet, tags)
	err := <-ch
	if err != nil {
		log.WithFields(logrus.Fields{
			"event_id": eventID,
			"err":      err,
		}).Error("problem sending sentry packet")
	} else {
		log.WithFields(logrus.Fields{
			"event_id": eventID,
		}).Info("successfully sent sentry packet")
	}

	return err
}
