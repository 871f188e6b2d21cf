package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pageza/foodgram/backend/config"
)

// New builds the application logger for the given environment. Production
// and CI log JSON at info level; development and test log human readable
// output at debug level.
func New(env config.Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if !env.Deployed() {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("env", string(env))), nil
}
