package settings

import (
	"errors"
	"fmt"
	"strings"
)

const errPrefix = "settings:"

var (
	errEmptyExpression = errors.New("expression must not be empty")
	errDetachedRule    = errors.New("compiled rule missing evaluator")
)

// EvaluationError reports a field rule that failed to compile or run. Field
// is empty when the expression was compiled outside a rule set.
type EvaluationError struct {
	Engine string
	Expr   string
	Field  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(errPrefix)
	if e.Engine != "" {
		b.WriteString(" " + e.Engine)
	}
	b.WriteString(" rule")
	if e.Field != "" {
		fmt.Fprintf(&b, " for field %q", e.Field)
	}
	if e.Expr != "" {
		fmt.Fprintf(&b, " (%s)", e.Expr)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// engineError tags err with the engine unless it already carries rule
// metadata or the package prefix.
func engineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), errPrefix) {
		return err
	}
	return fmt.Errorf("%s %s engine: %w", errPrefix, engine, err)
}

// ruleError attaches rule metadata to err. An existing EvaluationError in the
// chain keeps what it already has and only gains the missing pieces.
func ruleError(engine, expr, field string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Field: field, Err: err}
	}
	fillBlank(&evalErr.Engine, engine)
	fillBlank(&evalErr.Expr, expr)
	fillBlank(&evalErr.Field, field)
	return evalErr
}

func fillBlank(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
