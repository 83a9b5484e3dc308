package logging

import (
	"os"
	"testing"

	"alcyxob/gym-admin/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("nonsense"))
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, Output(config.LoggingConfig{}))

	w := Output(config.LoggingConfig{File: t.TempDir() + "/server", MaxSizeMB: 10})
	lj, ok := w.(*lumberjack.Logger)
	if assert.True(t, ok) {
		assert.Equal(t, 10, lj.MaxSize)
		assert.Contains(t, lj.Filename, "server.log")
	}
}
