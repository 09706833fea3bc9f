package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例
	Logger *logrus.Logger
	// currentLogFile 当前日志文件路径
	currentLogFile string
	// fileWriter 当前文件输出（Close 时释放）
	fileWriter *lumberjack.Logger
	// logMu 初始化/关闭锁
	logMu sync.Mutex
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则不写文件）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
	// Console 是否输出到终端。
	// TUI 模式必须关闭，否则日志会打乱全屏界面。
	Console bool
}

// Init 初始化日志系统（同时设置全局 logrus，包内的 logrus.WithField 也会写到同一输出）
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		ForceColors:     config.Console && config.OutputFile == "",
		DisableColors:   config.OutputFile != "",
	}
	logger.SetFormatter(formatter)

	var writers []io.Writer
	if config.Console {
		writers = append(writers, os.Stderr)
	}

	closeFileLocked()
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return err
		}
		fileWriter = &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, fileWriter)
		currentLogFile = config.OutputFile
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	logger.SetOutput(out)

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = logger
	return nil
}

// InitDefault 使用默认配置初始化（info 级别，仅终端）
func InitDefault() error {
	return Init(Config{Level: "info", Console: true})
}

// Close 关闭日志文件
func Close() error {
	logMu.Lock()
	defer logMu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	currentLogFile = ""
	return err
}

// GetCurrentLogFile 获取当前日志文件路径
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}

func std() *logrus.Logger {
	if Logger != nil {
		return Logger
	}
	return logrus.StandardLogger()
}

// Debugf 调试日志
func Debugf(format string, args ...interface{}) {
	std().Debugf(format, args...)
}

// Info 信息日志
func Info(args ...interface{}) {
	std().Info(args...)
}

// Infof 信息日志
func Infof(format string, args ...interface{}) {
	std().Infof(format, args...)
}

// Warnf 警告日志
func Warnf(format string, args ...interface{}) {
	std().Warnf(format, args...)
}

// Errorf 错误日志
func Errorf(format string, args ...interface{}) {
	std().Errorf(format, args...)
}

// WithField 带字段的日志
func WithField(key string, value interface{}) *logrus.Entry {
	return std().WithField(key, value)
}
