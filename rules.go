package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-account-settings/translate"
)

var (
	// ErrNoEvaluator is returned when no rule engine could be resolved.
	ErrNoEvaluator = errors.New("settings: evaluator not configured")
	// ErrNonBoolean is wrapped when a rule yields anything other than a bool.
	ErrNonBoolean = errors.New("settings: rule must evaluate to a bool")
)

// Rule guards one field. An empty expression always allows.
type Rule struct {
	Field    string `json:"field"`
	Editable string `json:"editable,omitempty"`
	Visible  string `json:"visible,omitempty"`
}

// DefaultRules returns the stock field rules. Identity fields are locked
// while an external profile data manager owns the profile, and the username
// is never editable.
func DefaultRules() []Rule {
	managed := "profileDataManager == nil"
	return []Rule{
		{Field: translate.FieldName, Editable: managed},
		{Field: translate.FieldEmail, Editable: managed},
		{Field: translate.FieldCountry, Editable: managed},
		{Field: translate.FieldUsername, Editable: "false"},
	}
}

type compiledField struct {
	rule     Rule
	editable CompiledRule
	visible  CompiledRule
}

// Rules evaluates per-field editability and visibility against unified
// settings values. It is safe for concurrent use once built.
type Rules struct {
	cfg       rulesConfig
	evaluator Evaluator
	engine    string
	fields    map[string]compiledField
}

// NewRules compiles rules up front. A field listed twice keeps the last
// rule.
func NewRules(rules []Rule, opts ...Option) (*Rules, error) {
	cfg := applyOptions(opts)
	evaluator, err := resolveEvaluator(cfg)
	if err != nil {
		return nil, err
	}

	r := &Rules{
		cfg:       cfg,
		evaluator: evaluator,
		engine:    evaluatorEngineName(evaluator),
		fields:    make(map[string]compiledField, len(rules)),
	}
	for _, rule := range rules {
		if rule.Field == "" {
			return nil, fmt.Errorf("settings: rule field must not be empty")
		}
		compiled := compiledField{rule: rule}
		if rule.Editable != "" {
			if compiled.editable, err = evaluator.Compile(rule.Editable); err != nil {
				return nil, ruleError(r.engine, rule.Editable, rule.Field, err)
			}
		}
		if rule.Visible != "" {
			if compiled.visible, err = evaluator.Compile(rule.Visible); err != nil {
				return nil, ruleError(r.engine, rule.Visible, rule.Field, err)
			}
		}
		r.fields[rule.Field] = compiled
	}
	return r, nil
}

// Editable reports whether field may be changed given values.
func (r *Rules) Editable(ctx context.Context, field string, values translate.Unified) (bool, error) {
	compiled, ok := r.fields[field]
	if !ok || compiled.editable == nil {
		return true, nil
	}
	return r.check(ctx, field, compiled.rule.Editable, compiled.editable, values)
}

// Visible reports whether field should be shown given values.
func (r *Rules) Visible(ctx context.Context, field string, values translate.Unified) (bool, error) {
	compiled, ok := r.fields[field]
	if !ok || compiled.visible == nil {
		return true, nil
	}
	return r.check(ctx, field, compiled.rule.Visible, compiled.visible, values)
}

// ReadOnlyFields lists the ruled fields that are not editable for values,
// sorted.
func (r *Rules) ReadOnlyFields(ctx context.Context, values translate.Unified) ([]string, error) {
	var locked []string
	for _, field := range r.Fields() {
		editable, err := r.Editable(ctx, field, values)
		if err != nil {
			return nil, err
		}
		if !editable {
			locked = append(locked, field)
		}
	}
	return locked, nil
}

// Fields returns the fields that carry a rule, sorted.
func (r *Rules) Fields() []string {
	fields := make([]string, 0, len(r.fields))
	for field := range r.fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Evaluate runs an ad hoc expression with the configured engine.
func (r *Rules) Evaluate(ctx context.Context, rc RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, engineError(r.engine, errEmptyExpression)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc = r.ruleContext(rc)
	start := time.Now()
	value, err := r.evaluator.Evaluate(rc, expr)
	err = ruleError(r.engine, expr, rc.Field, err)
	r.log(expr, rc.Field, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Rules) check(ctx context.Context, field, expr string, compiled CompiledRule, values translate.Unified) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rc := r.ruleContext(RuleContext{Values: values, Field: field})
	start := time.Now()
	value, err := compiled.Evaluate(rc)
	err = ruleError(r.engine, expr, field, err)
	if err == nil {
		if _, ok := value.(bool); !ok {
			err = ruleError(r.engine, expr, field, fmt.Errorf("%w, got %T", ErrNonBoolean, value))
		}
	}
	r.log(expr, field, time.Since(start), err)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

func (r *Rules) ruleContext(rc RuleContext) RuleContext {
	if rc.Now == nil && r.cfg.now != nil {
		now := r.cfg.now()
		rc.Now = &now
	}
	return rc.withDefaults()
}

func (r *Rules) log(expr, field string, duration time.Duration, err error) {
	r.cfg.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   r.engine,
		Expr:     expr,
		Field:    field,
		Duration: duration,
		Err:      err,
	})
}

func resolveEvaluator(cfg rulesConfig) (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}
