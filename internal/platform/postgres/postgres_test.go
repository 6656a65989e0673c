package postgres

import (
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.MaxOpenConns != 10 || cfg.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("RUNGRAPH_DATABASE_URL", "postgres://u:p@db:5432/graphs")
	t.Setenv("RUNGRAPH_DATABASE_MAX_OPEN_CONNS", "4")
	t.Setenv("RUNGRAPH_DATABASE_MAX_IDLE_CONNS", "2")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.URL != "postgres://u:p@db:5432/graphs" || cfg.MaxOpenConns != 4 || cfg.MaxIdleConns != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{URL: "postgres://x", PingTimeout: time.Second, MaxOpenConns: 2, MaxIdleConns: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	cases := map[string]func(c *Config){
		"missing url":        func(c *Config) { c.URL = "" },
		"zero ping timeout":  func(c *Config) { c.PingTimeout = 0 },
		"no open conns":      func(c *Config) { c.MaxOpenConns = 0 },
		"idle above open":    func(c *Config) { c.MaxIdleConns = 5 },
		"negative lifetime":  func(c *Config) { c.ConnMaxLifetime = -time.Second },
		"negative idle time": func(c *Config) { c.ConnMaxIdleTime = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() expected error")
			}
		})
	}
}
