package executor

// DefaultRegistry builds a Registry with every node family's runners
// already wired in. TRIGGER is intentionally absent: the
// engine materializes a trigger node's output directly from the
// TriggerEvent without invoking a runner (see pkg/types/schema.go).
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(&CodeRunner{})
	r.MustRegister(&TransformRunner{})
	r.MustRegister(&HTTPRunner{})

	for _, provider := range []string{"slack", "github", "calendar", "notion", "generic"} {
		r.MustRegister(NewExternalActionRunner(provider))
	}

	r.MustRegister(&ChatRunner{})

	r.MustRegister(&IfRunner{})
	r.MustRegister(&SwitchRunner{})
	r.MustRegister(&FilterRunner{})
	r.MustRegister(&LoopRunner{DefaultMaxIterations: DefaultMaxLoopIterations})
	r.MustRegister(&MergeRunner{})
	r.MustRegister(&WaitRunner{})

	for _, kind := range []string{"approval", "input", "selection", "review"} {
		r.MustRegister(NewHILRunner(kind))
	}

	r.MustRegister(&HTTPToolRunner{})
	r.MustRegister(&CodeToolRunner{})

	for _, sub := range []string{"buffer", "kv", "vector", "document"} {
		r.MustRegister(NewMemoryRunner(sub))
	}

	return r
}
