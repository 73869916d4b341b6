package config

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLOSURE_BATCH_SIZE", "50")
	t.Setenv("CLOSURE_AUDIT_INTERVAL", "6")

	cfg := Load(zap.NewNop())

	if cfg.ClosureBatchSize != 50 {
		t.Errorf("ClosureBatchSize = %d, want 50 from env", cfg.ClosureBatchSize)
	}
	if cfg.ClosureAuditInterval != 6*time.Hour {
		t.Errorf("ClosureAuditInterval = %v, want 6h", cfg.ClosureAuditInterval)
	}
	if cfg.DependsOnType != 1 {
		t.Errorf("DependsOnType = %d, want 1", cfg.DependsOnType)
	}
	if cfg.WebPort != 8080 {
		t.Errorf("WebPort = %d, want 8080", cfg.WebPort)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Config
		check func(t *testing.T, c Config)
	}{
		{
			name: "batch_size_floor",
			in:   Config{ClosureBatchSize: 0},
			check: func(t *testing.T, c Config) {
				if c.ClosureBatchSize != 100 {
					t.Errorf("ClosureBatchSize = %d, want 100", c.ClosureBatchSize)
				}
			},
		},
		{
			name: "relationship_types_default_to_depends_on",
			in:   Config{DependsOnType: 7},
			check: func(t *testing.T, c Config) {
				if len(c.RelationshipTypes) != 1 || c.RelationshipTypes[0] != 7 {
					t.Errorf("RelationshipTypes = %v, want [7]", c.RelationshipTypes)
				}
			},
		},
		{
			name: "audit_interval_in_hours",
			in:   Config{ClosureAuditHours: 3},
			check: func(t *testing.T, c Config) {
				if c.ClosureAuditInterval != 3*time.Hour {
					t.Errorf("ClosureAuditInterval = %v, want 3h", c.ClosureAuditInterval)
				}
			},
		},
		{
			name: "rebuild_concurrency_floor",
			in:   Config{RebuildConcurrency: -2},
			check: func(t *testing.T, c Config) {
				if c.RebuildConcurrency != 1 {
					t.Errorf("RebuildConcurrency = %d, want 1", c.RebuildConcurrency)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.normalize()
			tt.check(t, c)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"WARNING": zap.WarnLevel,
		" error ": zap.ErrorLevel,
		"bogus":   zap.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
