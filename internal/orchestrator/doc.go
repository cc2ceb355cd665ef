// Package orchestrator executes a routed subtask plan.
//
// Subtasks move through PENDING, READY, RUNNING and end SUCCEEDED or FAILED.
// A subtask becomes READY once every dependency has SUCCEEDED, and every
// READY subtask is dispatched at once. A failure marks all transitive
// dependents FAILED without running them. Each successful answer is checked
// by the validator before dependents see it.
//
// Example usage:
//
//	o := orchestrator.New(registry, catalog, validator)
//	res, err := o.Execute(ctx, orchestrator.Plan{
//	    Subtasks: subtasks,
//	    Routes:   routes,
//	    Context:  sctx,
//	    Capture:  capture,
//	})
package orchestrator
