package settings

import (
	"time"

	"github.com/goliatone/go-account-settings/translate"
)

// RuleContext carries inputs needed when evaluating a field rule.
type RuleContext struct {
	Values   translate.Unified
	Field    string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Values == nil {
		ctx.Values = translate.Unified{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) fieldLabel() string {
	if ctx.Field != "" {
		return ctx.Field
	}
	return "unknown"
}

// bindings returns the variables shared by every engine. Each value key is
// exposed at the top level and the whole map is also bound as values, so
// keys that are not identifiers stay reachable.
func (ctx RuleContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.Values)+5)
	for key, value := range ctx.Values {
		env[key] = value
	}
	env["values"] = map[string]any(ctx.Values)
	env["field"] = ctx.Field
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// Option configures NewRules.
type Option func(*rulesConfig)

type rulesConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
	now          func() time.Time
}

func applyOptions(opts []Option) rulesConfig {
	cfg := rulesConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg rulesConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopEvaluatorLogger{}
}

// WithEvaluator selects the engine used to compile rules. The expr engine is
// used when none is configured.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *rulesConfig) {
		cfg.evaluator = evaluator
	}
}

// WithClock overrides the time source bound as now.
func WithClock(now func() time.Time) Option {
	return func(cfg *rulesConfig) {
		cfg.now = now
	}
}
