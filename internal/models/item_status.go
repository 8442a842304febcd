package models

type ItemStatus string

const (
	StatusDraft      ItemStatus = "draft"
	StatusScheduled  ItemStatus = "scheduled"
	StatusQueued     ItemStatus = "queued"
	StatusManual     ItemStatus = "manual"
	StatusProcessing ItemStatus = "processing"
	StatusPosted     ItemStatus = "posted"
	StatusFailed     ItemStatus = "failed"
)

func (s ItemStatus) String() string {
	return string(s)
}

var AllStatuses = []ItemStatus{
	StatusDraft,
	StatusScheduled,
	StatusQueued,
	StatusManual,
	StatusProcessing,
	StatusPosted,
	StatusFailed,
}

func (s ItemStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// SweepStatuses are picked up by the periodic sweep and the delayed publish task.
var SweepStatuses = []ItemStatus{StatusScheduled, StatusQueued}

func (s ItemStatus) IsSweepEligible() bool {
	return s == StatusScheduled || s == StatusQueued
}

// Editable statuses can be set by the owner of an item. processing, posted
// and failed are written only by the publisher.
var editableStatuses = map[ItemStatus]bool{
	StatusDraft:     true,
	StatusScheduled: true,
	StatusQueued:    true,
	StatusManual:    true,
}

func (s ItemStatus) IsEditable() bool {
	return editableStatuses[s]
}

// IsValidUserTransition reports whether an owner may move an item from one
// status to another. A failed item may be resubmitted to any editable status.
func IsValidUserTransition(from, to ItemStatus) bool {
	if !editableStatuses[to] {
		return false
	}
	if from == to {
		return false
	}
	return editableStatuses[from] || from == StatusFailed
}
