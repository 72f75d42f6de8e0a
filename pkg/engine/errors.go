package engine

import (
	"errors"

	"github.com/flowcore/engine/pkg/repository"
)

// ErrTriggerNotApplicable is returned by ExecuteWorkflow when the caller
// supplies start_from_node without a trigger event.
var ErrTriggerNotApplicable = errors.New("TriggerNotApplicable")

// ErrNotFound mirrors pkg/repository's sentinel: ResumeExecution,
// CancelExecution and GetExecution all return it for an unknown execution id.
var ErrNotFound = repository.ErrNotFound
