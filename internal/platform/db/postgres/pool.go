package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/ogurasousui/teamplan/internal/platform/config"
	"github.com/sirupsen/logrus"
)

// BuildPoolConfig は database 設定から pgxpool.Config を構築します。
// log が nil でなければクエリトレースを QueryLogLevel 以上で log に出力します。
func BuildPoolConfig(cfg config.DatabaseConfig, log logrus.FieldLogger) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	params := poolCfg.ConnConfig.RuntimeParams
	if cfg.ApplicationName != "" {
		params["application_name"] = cfg.ApplicationName
	}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	if log != nil {
		level := tracelog.LogLevelWarn
		if cfg.QueryLogLevel != "" {
			level, err = tracelog.LogLevelFromString(cfg.QueryLogLevel)
			if err != nil {
				return nil, fmt.Errorf("postgres: query log level: %w", err)
			}
		}
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(log.WithField("component", "pgx")),
			LogLevel: level,
		}
	}

	return poolCfg, nil
}

// NewPool は pgxpool.Pool を生成し疎通確認を行います。
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := BuildPoolConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

func queryLogger(log logrus.FieldLogger) tracelog.LoggerFunc {
	return func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		entry := log.WithFields(logrus.Fields(data))
		switch level {
		case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
			entry.Debug(msg)
		case tracelog.LogLevelInfo:
			entry.Info(msg)
		case tracelog.LogLevelWarn:
			entry.Warn(msg)
		default:
			entry.Error(msg)
		}
	}
}
