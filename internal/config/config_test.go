package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SAVE_DELAY_MS", "RENDER_WINDOW_MS", "POS_NAMESPACE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SaveDelayMS != 100 {
		t.Fatalf("expected default save delay 100ms, got %d", cfg.SaveDelayMS)
	}
	if cfg.RenderWindowMS != 50 {
		t.Fatalf("expected default render window 50ms, got %d", cfg.RenderWindowMS)
	}
	if cfg.Namespace != "balancoffee" {
		t.Fatalf("expected default namespace, got %q", cfg.Namespace)
	}
}

func TestLoadRejectsNonPositiveWindows(t *testing.T) {
	t.Setenv("SAVE_DELAY_MS", "0")
	t.Setenv("RENDER_WINDOW_MS", "-10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SaveDelayMS != 100 || cfg.RenderWindowMS != 50 {
		t.Fatalf("expected fallback windows, got save=%d render=%d", cfg.SaveDelayMS, cfg.RenderWindowMS)
	}
}
