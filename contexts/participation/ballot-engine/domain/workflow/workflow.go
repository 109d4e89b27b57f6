// Package workflow is the voter progression state machine: it computes the
// next stage from election configuration and gates stage transitions so a
// voter can never move backward once advanced.
package workflow

import (
	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

// Resolution is the outcome of resolving the next workflow slot.
type Resolution struct {
	Stage     entities.Stage
	SlotIndex int
	// NewlyResolved is set when an alternatives slot was resolved by random
	// choice for the first time; callers must persist the choice so that
	// re-entry is deterministic.
	NewlyResolved bool
}

// Next returns the stage following current for the given voter. The home
// sentinel resolves to the first slot; past the last slot the terminal
// fallback is thanks. pick supplies the random index for alternatives slots
// and is only consulted when the voter has no persisted choice yet.
func Next(w entities.Workflow, voter entities.Voter, current entities.Stage, pick func(n int) int) Resolution {
	var slotIndex int
	if current == entities.StageHome {
		slotIndex = 0
	} else {
		idx, ok := w.Index(current)
		if !ok {
			return Resolution{Stage: entities.StageThanks, SlotIndex: -1}
		}
		slotIndex = idx + 1
	}
	if slotIndex >= len(w) {
		return Resolution{Stage: entities.StageThanks, SlotIndex: -1}
	}

	slot := w[slotIndex]
	if slot.Fixed() {
		return Resolution{Stage: slot.Alternatives[0], SlotIndex: slotIndex}
	}
	if chosen, ok := voter.WorkflowChoice(slotIndex); ok && slot.Contains(chosen) {
		return Resolution{Stage: chosen, SlotIndex: slotIndex}
	}
	chosen := slot.Alternatives[pick(len(slot.Alternatives))]
	return Resolution{Stage: chosen, SlotIndex: slotIndex, NewlyResolved: true}
}

// Gate decides whether a voter with the given recorded stage may enter
// target. Stages outside the configured workflow are always allowed; a
// target earlier than the recorded stage is rejected and the voter is
// redirected to the recorded stage.
func Gate(w entities.Workflow, recorded entities.Stage, target entities.Stage) (allowed bool, redirect entities.Stage) {
	if recorded == "" {
		return true, ""
	}
	targetIdx, ok := w.Index(target)
	if !ok {
		return true, ""
	}
	recordedIdx, ok := w.Index(recorded)
	if !ok {
		return true, ""
	}
	if targetIdx < recordedIdx {
		return false, recorded
	}
	return true, ""
}
