package lib

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads any of the given dotenv files that exist into the
// process environment without overriding what is already set
func LoadEnv(log logrus.FieldLogger, files ...string) []string {
	loaded := []string{}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.WithFields(logrus.Fields{
				"err":  err,
				"file": file,
			}).Warn("failed to load env file")
			continue
		}
		loaded = append(loaded, file)
	}

	if len(loaded) > 0 {
		log.WithField("files", loaded).Debug("loaded env files")
	}
	return loaded
}
