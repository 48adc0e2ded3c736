// Package email implements the outreach draft review workflow.
//
// Drafts are created only by the generation callback, then move through
// human review (edit, approve, reject) before dispatch marks them sent.
// Mutations that also move the parent lead happen atomically inside the
// repository; the service layer owns gating and read-side lead joins.
package email
