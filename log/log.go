package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

// NOTE: 一些option选项是无法覆盖的
func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// Lumberjack logger虽然持有File但没有暴露sync方法，所以没办法利用zap的sync特性
// 所以额外返回一个closer，需要保证在进程退出前close以保证写入的内容可以全部刷到到磁盘
func NewFilePlugin(
	filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath

	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the run logger: the console (output "stdout" or "stderr", default
// stderr), plus a rotated file when filePath is set.
// The returned closer flushes the file and must be called before exit.
func Setup(levelText string, output string, filePath string) (*zap.Logger, io.Closer, error) {
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, nil, err
	}

	var plugins []Plugin
	switch output {
	case "stdout":
		plugins = append(plugins, NewStdoutPlugin(level))
	case "stderr", "":
		plugins = append(plugins, NewStderrPlugin(level))
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", output)
	}

	var closer io.Closer = nopCloser{}
	if filePath != "" {
		var p Plugin
		p, closer = NewFilePlugin(filePath, level)
		plugins = append(plugins, p)
	}

	return NewLogger(zapcore.NewTee(plugins...)), closer, nil
}
