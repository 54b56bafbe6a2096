// Package config holds the service settings: defaults, an optional JSON
// file and SEEGA_* environment overrides, applied in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/seega/internal/engine"
)

// EnvPrefix starts the name of every environment override.
const EnvPrefix = "SEEGA_"

// Duration is a time.Duration that reads and writes as "1500ms", "30m".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Plain numbers are milliseconds.
		var ms int64
		if err := json.Unmarshal(b, &ms); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the service configuration.
type Config struct {
	Addr           string   `json:"addr"`
	DataDir        string   `json:"data_dir"` // empty: platform data directory
	TableBits      int      `json:"table_bits"`
	MaxSessions    int      `json:"max_sessions"`
	SessionIdleTTL Duration `json:"session_idle_ttl"`
	MoveTime       Duration `json:"move_time"` // 0: no time limit
	MaxNodes       uint64   `json:"max_nodes"` // 0: no node limit
	Randomize      bool     `json:"randomize"`
	PersistTables  bool     `json:"persist_tables"`
	TableTTL       Duration `json:"table_ttl"`
	LogLevel       string   `json:"log_level"`
	PrettyLogs     bool     `json:"pretty_logs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8080",
		TableBits:      16,
		MaxSessions:    64,
		SessionIdleTTL: Duration(30 * time.Minute),
		MoveTime:       Duration(5 * time.Second),
		Randomize:      true,
		PersistTables:  true,
		TableTTL:       Duration(24 * time.Hour),
		LogLevel:       "info",
	}
}

// Load reads the file at path (if path is not empty) over the defaults,
// then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		err = cfg.Decode(f)
		f.Close()
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode merges a JSON document into c. Unknown fields are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(c)
}

// ApplyEnv applies SEEGA_* overrides found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(p *string) func(string) error {
		return func(v string) error { *p = v; return nil }
	}
	integer := func(p *int) func(string) error {
		return func(v string) (err error) { *p, err = strconv.Atoi(v); return }
	}
	boolean := func(p *bool) func(string) error {
		return func(v string) (err error) { *p, err = strconv.ParseBool(v); return }
	}
	duration := func(p *Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			*p = Duration(d)
			return err
		}
	}

	overrides := []struct {
		name string
		set  func(string) error
	}{
		{"ADDR", str(&c.Addr)},
		{"DATA_DIR", str(&c.DataDir)},
		{"TABLE_BITS", integer(&c.TableBits)},
		{"MAX_SESSIONS", integer(&c.MaxSessions)},
		{"SESSION_TTL", duration(&c.SessionIdleTTL)},
		{"MOVE_TIME", duration(&c.MoveTime)},
		{"MAX_NODES", func(v string) (err error) { c.MaxNodes, err = strconv.ParseUint(v, 10, 64); return }},
		{"RANDOMIZE", boolean(&c.Randomize)},
		{"PERSIST_TABLES", boolean(&c.PersistTables)},
		{"TABLE_TTL", duration(&c.TableTTL)},
		{"LOG_LEVEL", str(&c.LogLevel)},
		{"PRETTY_LOGS", boolean(&c.PrettyLogs)},
	}
	for _, o := range overrides {
		v, ok := lookup(EnvPrefix + o.name)
		if !ok {
			continue
		}
		if err := o.set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.name, err)
		}
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.TableBits < engine.MinTableBits || c.TableBits > engine.MaxTableBits {
		errs = append(errs, fmt.Errorf("table_bits %d out of range [%d, %d]", c.TableBits, engine.MinTableBits, engine.MaxTableBits))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New("session_idle_ttl must be positive"))
	}
	if c.MoveTime < 0 {
		errs = append(errs, errors.New("move_time is negative"))
	}
	if c.TableTTL <= 0 {
		errs = append(errs, errors.New("table_ttl must be positive"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Limits returns the per-move search budget.
func (c *Config) Limits() engine.Limits {
	return engine.Limits{MoveTime: time.Duration(c.MoveTime), Nodes: c.MaxNodes}
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.PrettyLogs {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
