package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, SetupLogger("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, SetupLogger("warn").GetLevel())
	assert.Equal(t, logrus.ErrorLevel, SetupLogger("error").GetLevel())
	assert.Equal(t, logrus.InfoLevel, SetupLogger("verbose").GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, SetupLogger("info").Formatter)
}
