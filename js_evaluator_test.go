//go:build js_eval

package settings

import (
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
)

func TestJSEvaluatorInterruptsRunawayRule(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	rule, err := evaluator.Compile("(function(){ while (true) {} })()")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rule.Evaluate(RuleContext{Field: "name"})
		done <- err
	}()

	select {
	case err := <-done:
		var interrupted *goja.InterruptedError
		if !errors.As(err, &interrupted) {
			t.Fatalf("expected interrupted error, got %v", err)
		}
		var evalErr *EvaluationError
		if !errors.As(err, &evalErr) || evalErr.Field != "name" {
			t.Fatalf("expected rule metadata, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runaway rule was not interrupted")
	}
}
