package main

import (
	"fmt"
	"io"
	"time"

	"github.com/geal-ai/grib2jma"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// app carries the resolved configuration shared by every command.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

// load reads the optional config file and environment, then configures
// logging. Flags set on the command line take precedence over both.
func (a *app) load(logOut io.Writer) error {
	a.v.SetEnvPrefix("JMARADAR")
	a.v.AutomaticEnv()
	if configFile := a.v.GetString("config"); configFile != "" {
		a.v.SetConfigFile(configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return a.setupLogging(logOut)
}

func (a *app) setupLogging(out io.Writer) error {
	level, err := logrus.ParseLevel(a.v.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	switch format := a.v.GetString("log_format"); format {
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	a.log = log
	return nil
}

func (a *app) decoder() (*grib2jma.Decoder, error) {
	mode, err := grib2jma.ParseMode(a.v.GetString("mode"))
	if err != nil {
		return nil, err
	}
	return &grib2jma.Decoder{
		Mode:    mode,
		Rows:    a.v.GetInt("rows"),
		Columns: a.v.GetInt("columns"),
		Logger:  a.log,
	}, nil
}

func (a *app) client() *grib2jma.Client {
	c := grib2jma.NewClient()
	c.HTTPClient.Timeout = a.v.GetDuration("timeout")
	c.MaxBytes = a.maxBytes()
	return c
}

func (a *app) maxBytes() int64 {
	if n := a.v.GetInt64("max_bytes"); n > 0 {
		return n
	}
	return grib2jma.DefaultMaxBytes
}
