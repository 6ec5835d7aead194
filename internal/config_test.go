package internal

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestOverridesConfig_EmptyDriverDefaultsFile(t *testing.T) {
	cfg := OverridesConfig{Driver: "", Path: "./overrides.json"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to file: %v", err)
	}
	if cfg.Driver != OverrideDriverFile {
		t.Errorf("driver = %q, want %q", cfg.Driver, OverrideDriverFile)
	}
}

func TestOverridesConfig_UnknownDriver(t *testing.T) {
	cfg := OverridesConfig{Driver: "postgres", Path: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail validation")
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var cfg struct {
		Delay Duration `yaml:"delay"`
	}
	if err := yaml.Unmarshal([]byte("delay: 90s\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Delay.Std() != 90*time.Second {
		t.Errorf("delay = %v, want 90s", cfg.Delay.Std())
	}

	if err := yaml.Unmarshal([]byte("delay: soon\n"), &cfg); err == nil {
		t.Error("invalid duration should fail to unmarshal")
	}
}

func TestProbeConfig_ConcurrencyBounds(t *testing.T) {
	cfg := ProbeConfig{Concurrency: 200}
	if err := cfg.Validate(); err == nil {
		t.Fatal("concurrency over limit should fail validation")
	}
	cfg = NewDefaultConfig().Probe
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default probe config should pass: %v", err)
	}
}
