package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// サポートするストレージドライバー。
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Agency   AgencyConfig   `yaml:"agency"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig はストレージに関する設定です。Driver が postgres の場合のみ接続情報を検証します。
type DatabaseConfig struct {
	Driver             string        `yaml:"driver"`
	SQLitePath         string        `yaml:"sqlite_path"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	// ApplicationName は pg_stat_activity に表示される接続名です。
	ApplicationName string `yaml:"application_name"`
	// QueryLogLevel は pgx のクエリトレースを出力するレベルです (trace, debug, info, warn, error, none)。
	QueryLogLevel       string        `yaml:"query_log_level"`
	StatementTimeout    time.Duration `yaml:"-"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AgencyConfig はエージェンシー設定が未保存の場合に使う既定値です。
type AgencyConfig struct {
	ID                 string          `yaml:"id"`
	WorkingDays        []string        `yaml:"working_days"`
	WorkingHoursStart  string          `yaml:"working_hours_start"`
	WorkingHoursEnd    string          `yaml:"working_hours_end"`
	HolidayRegion      string          `yaml:"holiday_region"`
	PermissionDefaults map[string]bool `yaml:"permission_defaults"`
}

// JobsConfig はバックグラウンドジョブの設定です。空のスケジュールはジョブを無効にします。
type JobsConfig struct {
	PendingReminderCron string `yaml:"pending_reminder_cron"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
// カレントディレクトリに .env があれば先に読み込み、TEAMPLAN_ で始まる環境変数で一部の値を上書きします。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TEAMPLAN_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("TEAMPLAN_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("TEAMPLAN_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("TEAMPLAN_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TEAMPLAN_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("TEAMPLAN_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("TEAMPLAN_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TEAMPLAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}

	c.Agency.ID = strings.TrimSpace(c.Agency.ID)
	if c.Agency.ID == "" {
		c.Agency.ID = "default"
	}
	if (c.Agency.WorkingHoursStart == "") != (c.Agency.WorkingHoursEnd == "") {
		return fmt.Errorf("config: agency.working_hours_start and working_hours_end must be set together")
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}

	switch d.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("config: database.sqlite_path must be set")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported database.driver %q", d.Driver)
	}

	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	timeout, err := parseDurationAllowEmpty(d.StatementTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.statement_timeout: %w", err)
	}
	if timeout < 0 {
		return fmt.Errorf("config: database.statement_timeout must not be negative")
	}
	d.StatementTimeout = timeout

	if d.ApplicationName == "" {
		d.ApplicationName = "teamplan"
	}
	d.QueryLogLevel = strings.ToLower(strings.TrimSpace(d.QueryLogLevel))
	if d.QueryLogLevel == "" {
		d.QueryLogLevel = "warn"
	}

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。ユーザー名とパスワードはエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
