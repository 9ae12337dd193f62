package session

import (
	"context"

	"github.com/qmuntal/stateless"

	"github.com/chatadmision/admitchat/internal/logger"
)

// FSM states
type FSMState stateless.State

var (
	StateUninitialized   FSMState = "Uninitialized"
	StateInitializing    FSMState = "Initializing"
	StateActiveNew       FSMState = "ActiveNew"       // active, no backend id yet
	StateResuming        FSMState = "Resuming"        // fetching a prior session
	StateActiveConfirmed FSMState = "ActiveConfirmed" // active, backend id adopted
)

// FSM triggers
type FSMTrigger stateless.Trigger

var (
	TriggerMount              FSMTrigger = "Mount"
	TriggerNewReady           FSMTrigger = "NewReady"
	TriggerResumeRequested    FSMTrigger = "ResumeRequested"
	TriggerResumeSucceeded    FSMTrigger = "ResumeSucceeded"
	TriggerResumeFailed       FSMTrigger = "ResumeFailed"
	TriggerFirstTurnConfirmed FSMTrigger = "FirstTurnConfirmed"
	TriggerNewChat            FSMTrigger = "NewChat"
	TriggerActiveDeleted      FSMTrigger = "ActiveDeleted"
)

// newFSM wires the session lifecycle. There is no terminal state: every
// failure path lands back in ActiveNew so the chat screen is never stuck.
func newFSM() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateUninitialized)

	fsm.Configure(StateUninitialized).
		Permit(TriggerMount, StateInitializing)

	fsm.Configure(StateInitializing).
		Permit(TriggerNewReady, StateActiveNew).
		Permit(TriggerResumeRequested, StateResuming)

	fsm.Configure(StateResuming).
		Permit(TriggerResumeSucceeded, StateActiveConfirmed).
		Permit(TriggerResumeFailed, StateActiveNew).
		Permit(TriggerNewChat, StateActiveNew).
		Permit(TriggerActiveDeleted, StateActiveNew)

	fsm.Configure(StateActiveNew).
		Permit(TriggerFirstTurnConfirmed, StateActiveConfirmed).
		Permit(TriggerResumeRequested, StateResuming).
		PermitReentry(TriggerNewChat)

	fsm.Configure(StateActiveConfirmed).
		Permit(TriggerNewChat, StateActiveNew).
		Permit(TriggerActiveDeleted, StateActiveNew).
		Permit(TriggerResumeRequested, StateResuming)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("session transition", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	return fsm
}
