package executor

import (
	"context"

	"github.com/flowcore/engine/pkg/adapters"
	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/types"
)

// fakeLogger discards everything; tests that care about warnings read
// rc.logger.warnings directly instead of parsing log output.
type fakeLogger struct {
	warnings []string
}

func (l *fakeLogger) Debug(msg string) {}
func (l *fakeLogger) Info(msg string)  {}
func (l *fakeLogger) Warn(msg string)  { l.warnings = append(l.warnings, msg) }
func (l *fakeLogger) Error(msg string) {}

// fakeRunContext is a minimal in-memory RunContext for runner unit tests,
// a hand-rolled fake rather than a generated mock.
type fakeRunContext struct {
	ctx     context.Context
	node    types.Node
	cfg     map[string]interface{}
	inputs  map[string]interface{}
	trigger map[string]interface{}
	bundle  adapters.Bundle
	logger  *fakeLogger
	engine  types.Config
	attempt int
}

func newFakeRunContext(node types.Node) *fakeRunContext {
	return &fakeRunContext{
		ctx:    context.Background(),
		node:   node,
		cfg:    node.Config,
		inputs: map[string]interface{}{},
		logger: &fakeLogger{},
		engine: *config.Default(),
	}
}

func (f *fakeRunContext) Context() context.Context            { return f.ctx }
func (f *fakeRunContext) Node() types.Node                     { return f.node }
func (f *fakeRunContext) Config() map[string]interface{}       { return f.cfg }
func (f *fakeRunContext) Inputs() map[string]interface{}       { return f.inputs }
func (f *fakeRunContext) TriggerEvent() map[string]interface{} { return f.trigger }
func (f *fakeRunContext) Adapters() adapters.Bundle            { return f.bundle }
func (f *fakeRunContext) Logger() Logger                       { return f.logger }
func (f *fakeRunContext) EngineConfig() types.Config           { return f.engine }
func (f *fakeRunContext) Attempt() int                         { return f.attempt }
