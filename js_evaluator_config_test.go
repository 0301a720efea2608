package settings

import (
	"testing"
	"time"
)

func TestJSRuleConfig(t *testing.T) {
	cfg := newJSRuleConfig(nil)
	if cfg.timeout != DefaultJSRuleTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.timeout)
	}

	registry := DefaultFunctions()
	cache := NewProgramCache()
	cfg = newJSRuleConfig([]JSEvaluatorOption{
		JSWithTimeout(0),
		JSWithProgramCache(cache),
		JSWithFunctionRegistry(registry),
		nil,
	})
	if cfg.timeout != 0 || cfg.cache != cache {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.registry == registry || len(cfg.registry.Names()) != len(registry.Names()) {
		t.Fatalf("registry must be copied")
	}

	cfg = newJSRuleConfig([]JSEvaluatorOption{JSWithFunctionRegistry(nil), JSWithTimeout(time.Second)})
	if cfg.registry != nil || cfg.timeout != time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
