package db

import (
	"context"
	"fmt"
	"time"

	obslogger "github.com/actorhub/actorhub/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config Config
	Log    *zap.Logger
}

// New opens the configured database and closes it when the app stops.
func New(p Params) (*gorm.DB, error) {
	conn, err := Open(p.Config, Options{Debug: p.Config.Debug, Instrument: true})
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	p.Log.Info("database connected", zap.String("type", p.Config.Type), zap.String("name", p.Config.Name))
	return conn, nil
}

type Options struct {
	Debug bool
	// Instrument installs tracing and prometheus plugins.
	Instrument bool
}

func Open(cfg Config, opts Options) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig(opts.Debug)),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}

	if opts.Instrument {
		if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
			return nil, err
		}
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.Name,
			RefreshInterval: 15,
			StartServer:     false,
		})); err != nil {
			return nil, err
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Type == TypeSQLite {
		// sqlite serializes writers; one connection keeps transactions from tripping SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
	return conn, nil
}
