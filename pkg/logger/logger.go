package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
)

const serviceName = "smartdine"

// NewLogger 根据配置初始化 Zap 日志实例
//   - format=console 输出彩色开发格式，其余一律 JSON
//   - 时间戳统一按校区时区输出，便于与餐段判定对照；loc 为 nil 时用 UTC
//   - output 为空时写 stdout，可配置多个目标（文件路径 / stdout / stderr）
func NewLogger(cfg *config.LogConfig, loc *time.Location) (*zap.Logger, error) {
	if loc == nil {
		loc = time.UTC
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		// 采样会丢掉同一秒内的重复请求日志
		zapCfg.Sampling = nil
	}
	zapCfg.EncoderConfig.EncodeTime = campusTimeEncoder(loc)

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if len(cfg.Output) > 0 {
		zapCfg.OutputPaths = cfg.Output
	}

	logger, err := zapCfg.Build(zap.Fields(
		zap.String("service", serviceName),
		zap.String("tz", loc.String()),
	))
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}
	return logger, nil
}

func campusTimeEncoder(loc *time.Location) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02T15:04:05.000Z07:00"))
	}
}
