//go:build !js_eval

package settings

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSRuleConfig(opts)
	return nil
}

func jsEngineName(Evaluator) string {
	return ""
}
