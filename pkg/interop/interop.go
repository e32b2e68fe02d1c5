// Package interop bundles the pieces every layer of the tool needs: the
// parsed configuration, the shared logger and the optional New Relic
// application used to decorate logs and report the sync runs.
package interop

import (
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/nrlogrus"
	"github.com/newrelic/go-agent/v3/newrelic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Interop struct {
	App    *newrelic.Application
	Logger *log.Logger
}

func NewInteroperability() (*Interop, error) {
	licenseKey := os.Getenv("NEW_RELIC_LICENSE_KEY")

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("SW5 Shopify Sync"),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigEnabled(licenseKey != ""),
	)
	if err != nil {
		return nil, err
	}

	logger := log.New()

	logger.SetLevel(log.WarnLevel)
	logger.SetFormatter(nrlogrus.NewFormatter(app, &log.TextFormatter{}))

	viper.SetConfigName("config")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")

	err = viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	setupLogging(logger)

	return &Interop{app, logger}, nil
}

func (i *Interop) Shutdown() {
	i.App.Shutdown(time.Second * 3)
}

func setupLogging(logger *log.Logger) {
	logLevel := viper.GetString("log.level")
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			log.Infof("failed to parse log level, default will be used: %s", err)
		} else {
			logger.SetLevel(level)
		}
	}

	if viper.IsSet("log.fileName") {
		file, err := os.OpenFile(
			viper.GetString("log.fileName"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0666,
		)
		if err != nil {
			log.Infof("failed to log to file, using default stderr: %s", err)
		} else {
			logger.Out = file
		}
	}
}
