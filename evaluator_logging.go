package settings

import (
	"time"

	"github.com/goliatone/go-account-settings/pkg/interfaces"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Field    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// EvaluatorLoggerFromLogger reports evaluations through logger: failures at
// warn level, everything else at debug.
func EvaluatorLoggerFromLogger(logger interfaces.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		args := []any{
			"engine", event.Engine,
			"expr", event.Expr,
			"field", event.Field,
			"duration", event.Duration,
		}
		if event.Err != nil {
			logger.Warn("rules.evaluate.failed", append(args, "error", event.Err)...)
			return
		}
		logger.Debug("rules.evaluate", args...)
	})
}

// WithEvaluatorLogger attaches an evaluator logger to the rules.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *rulesConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}
