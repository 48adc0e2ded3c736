package domain

// LeadEvent enumerates the lifecycle events that move a lead between statuses.
// Transitions are defined as an explicit (current status, event) table; anything
// not in the table is an undefined transition.
type LeadEvent string

const (
	LeadEventDraftCreated     LeadEvent = "draft-created"
	LeadEventGenerationFailed LeadEvent = "generation-failed"
	LeadEventApproved         LeadEvent = "approved"
	LeadEventSent             LeadEvent = "sent"
	LeadEventOpened           LeadEvent = "opened"
	LeadEventReplied          LeadEvent = "replied"
)

type leadTransition struct {
	from []LeadStatus
	to   LeadStatus
}

var leadTransitions = map[LeadEvent]leadTransition{
	LeadEventDraftCreated:     {from: []LeadStatus{LeadNew, LeadGenerationFailed}, to: LeadEmailGenerated},
	LeadEventGenerationFailed: {from: []LeadStatus{LeadNew, LeadEmailGenerated}, to: LeadGenerationFailed},
	LeadEventApproved:         {from: []LeadStatus{LeadEmailGenerated}, to: LeadApproved},
	LeadEventSent:             {from: []LeadStatus{LeadApproved}, to: LeadSent},
	LeadEventOpened:           {from: []LeadStatus{LeadSent}, to: LeadOpened},
	LeadEventReplied:          {from: []LeadStatus{LeadSent, LeadOpened}, to: LeadReplied},
}

// NextLeadStatus returns the status a lead moves to when event fires in the
// current status. ok is false when the transition is undefined.
func NextLeadStatus(current LeadStatus, event LeadEvent) (LeadStatus, bool) {
	t, exists := leadTransitions[event]
	if !exists {
		return current, false
	}
	for _, f := range t.from {
		if f == current {
			return t.to, true
		}
	}
	return current, false
}

// LeadStatusReachable reports whether any event moves a lead from one status
// directly to the other. Used to validate direct user status updates.
func LeadStatusReachable(from, to LeadStatus) bool {
	for _, t := range leadTransitions {
		if t.to != to {
			continue
		}
		for _, f := range t.from {
			if f == from {
				return true
			}
		}
	}
	return false
}

// LeadEventSources returns the statuses from which the event is defined.
// Repositories use this to guard the lead-side update in multi-entity
// transactions.
func LeadEventSources(event LeadEvent) []LeadStatus {
	t, exists := leadTransitions[event]
	if !exists {
		return nil
	}
	out := make([]LeadStatus, len(t.from))
	copy(out, t.from)
	return out
}

// Email review/send gating. Drafts can be re-approved after a reject (the
// reviewer edits and changes their mind) and pulled back from approved before
// the send fires; only approved drafts may be marked sent.

// EmailApproveAllowed reports whether an email in the given status can be approved.
func EmailApproveAllowed(s EmailStatus) bool {
	return s == EmailPendingReview || s == EmailRejected
}

// EmailRejectAllowed reports whether an email in the given status can be rejected.
func EmailRejectAllowed(s EmailStatus) bool {
	return s == EmailPendingReview || s == EmailApproved
}

// EmailEditAllowed reports whether an email's content can still be changed.
func EmailEditAllowed(s EmailStatus) bool {
	return s == EmailPendingReview || s == EmailApproved || s == EmailRejected
}

// EmailMarkSentAllowed reports whether an email can be marked sent.
func EmailMarkSentAllowed(s EmailStatus) bool {
	return s == EmailApproved
}
