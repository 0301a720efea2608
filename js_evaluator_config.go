package settings

import "time"

// DefaultJSRuleTimeout bounds a single JS rule run. Field rules are short
// predicates, so anything slower is treated as a runaway script.
const DefaultJSRuleTimeout = 250 * time.Millisecond

// JSEvaluatorOption configures NewJSEvaluator.
type JSEvaluatorOption func(*jsRuleConfig)

type jsRuleConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSWithProgramCache shares compiled rule scripts through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *jsRuleConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry exposes a copy of registry to rule scripts, both as
// call(name, ...) and as globals named after each function.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *jsRuleConfig) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts rule scripts that run longer than timeout. Zero or
// less disables the limit.
func JSWithTimeout(timeout time.Duration) JSEvaluatorOption {
	return func(cfg *jsRuleConfig) {
		cfg.timeout = timeout
	}
}

func newJSRuleConfig(opts []JSEvaluatorOption) jsRuleConfig {
	cfg := jsRuleConfig{timeout: DefaultJSRuleTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
