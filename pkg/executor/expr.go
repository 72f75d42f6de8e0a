package executor

import (
	"sync"

	"github.com/flowcore/engine/pkg/expression"
)

// sharedExprEngine is the package-wide expr-lang engine every runner
// evaluates conversion/condition expressions through. One engine per
// process is safe: ExprEngine caches compiled programs internally and
// does no per-call mutation beyond that cache.
var (
	sharedExprEngine     *expression.ExprEngine
	sharedExprEngineOnce sync.Once
)

func exprEngine() *expression.ExprEngine {
	sharedExprEngineOnce.Do(func() {
		sharedExprEngine = expression.NewExprEngine()
	})
	return sharedExprEngine
}

// evalBool evaluates expr against the node's aggregated inputs, exposed to
// the expression as both "input" and "item".
func evalBool(expr string, rc RunContext) (bool, error) {
	input := rc.Inputs()["input"]
	return exprEngine().EvaluateBoolean(expr, input, exprContext(rc))
}

// evalValue evaluates expr for its value, same environment as evalBool.
func evalValue(expr string, rc RunContext) (interface{}, error) {
	input := rc.Inputs()["input"]
	return exprEngine().EvaluateValue(expr, input, exprContext(rc))
}

func exprContext(rc RunContext) *expression.Context {
	return &expression.Context{
		NodeResults: rc.Inputs(),
		Variables:   rc.Inputs(),
		ContextVars: rc.TriggerEvent(),
	}
}
