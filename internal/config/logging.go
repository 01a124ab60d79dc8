package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// InitLog configures the global logrus logger. Logs go to stderr so that
// command output on stdout stays machine readable.
func InitLog(cfg LoggingConfig) error {
	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{})
	case "color":
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	default:
		return errors.Errorf("unrecognized log format %q", cfg.Format)
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "unrecognized log level")
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	return nil
}
