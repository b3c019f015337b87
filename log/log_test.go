package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.level)
		assert.Equal(t, tt.want, zapLevel.Level(), "level %q", tt.level)
	}
	SetLevel(LevelInfo)
}

type capturingLogger struct {
	Logger
	msgs []string
}

func (c *capturingLogger) Infof(format string, args ...any) {
	c.msgs = append(c.msgs, format)
}

func TestDefaultReplaceable(t *testing.T) {
	old := Default
	defer func() { Default = old }()

	capture := &capturingLogger{}
	Default = capture
	Infof("hello %s", "world")
	assert.Equal(t, []string{"hello %s"}, capture.msgs)
}
