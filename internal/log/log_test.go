package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Himanshujchavan/GROQPILOT/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("StdoutJSON", func(t *testing.T) {
		var buf bytes.Buffer
		l := logrus.New()
		require.NoError(t, apply(l, config.LogConfig{Level: "debug", Format: "json", Output: "stdout"}, &buf))

		l.Debug("hello")
		assert.Equal(t, logrus.DebugLevel, l.GetLevel())
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("BothWritesFile", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "server.log")
		l := logrus.New()
		require.NoError(t, apply(l, config.LogConfig{Level: "info", Format: "text", Output: "both", FilePath: path, MaxSize: 1}, &buf))

		l.Info("rotated")
		assert.Contains(t, buf.String(), "rotated")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "rotated")
	})

	t.Run("InvalidLevelFallsBack", func(t *testing.T) {
		var buf bytes.Buffer
		l := logrus.New()
		require.NoError(t, apply(l, config.LogConfig{Level: "loud", Output: "stdout"}, &buf))
		assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	})
}
