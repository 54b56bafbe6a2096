package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seega.json")
	doc := `{"addr": ":9000", "table_bits": 18, "move_time": "750ms", "session_idle_ttl": 60000}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEEGA_TABLE_BITS", "20")
	t.Setenv("SEEGA_RANDOMIZE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.TableBits != 20 {
		t.Errorf("Environment did not override table_bits: %d", cfg.TableBits)
	}
	if time.Duration(cfg.MoveTime) != 750*time.Millisecond {
		t.Errorf("MoveTime = %v", time.Duration(cfg.MoveTime))
	}
	if time.Duration(cfg.SessionIdleTTL) != time.Minute {
		t.Errorf("SessionIdleTTL = %v, numbers are milliseconds", time.Duration(cfg.SessionIdleTTL))
	}
	if cfg.Randomize {
		t.Error("Randomize should be off")
	}
	if cfg.MaxSessions != Default().MaxSessions {
		t.Error("Unset field lost its default")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", filepath.Join(dir, "nope.json"), "no such file"},
		{"unknown field", write("unknown.json", `{"colour": 1}`), "unknown field"},
		{"bad bits", write("bits.json", `{"table_bits": 40}`), "table_bits"},
		{"bad level", write("level.json", `{"log_level": "loud"}`), "log_level"},
		{"bad duration", write("dur.json", `{"move_time": "soon"}`), "duration"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestApplyEnvErrors(t *testing.T) {
	cfg := Default()
	lookup := func(k string) (string, bool) {
		if k == "SEEGA_MAX_NODES" {
			return "-1", true
		}
		return "", false
	}
	if err := cfg.ApplyEnv(lookup); err == nil || !strings.Contains(err.Error(), "SEEGA_MAX_NODES") {
		t.Errorf("err = %v", err)
	}
}

func TestDurationJSON(t *testing.T) {
	data, err := json.Marshal(Duration(90 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestLimitsAndLogger(t *testing.T) {
	cfg := Default()
	cfg.MaxNodes = 1000
	l := cfg.Limits()
	if l.MoveTime != 5*time.Second || l.Nodes != 1000 {
		t.Errorf("Limits = %+v", l)
	}

	var buf bytes.Buffer
	cfg.LogLevel = "warn"
	log := cfg.Logger(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Level not applied: %s", buf.String())
	}
}
