// Package orchestrator talks to the external n8n workflow engine.
//
// The dashboard never drafts or sends email itself: it fires a single
// webhook POST at the engine and the engine reports results back through
// the callback endpoints. Calls are fire-once with a timeout and no retry;
// a failed trigger leaves no state behind, so the operator just clicks
// again.
package orchestrator
