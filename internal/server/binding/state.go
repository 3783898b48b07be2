// Package binding drives the device-binding workflow: first-use binding,
// verification of logins against the stored binding, and the reset state
// machine from mismatch through administrative resolution.
package binding

import "errors"

// ErrInvalidTransition indicates an event that is not legal in the
// current workflow state.
var ErrInvalidTransition = errors.New("invalid state transition")

// State - состояние аккаунта в workflow привязки устройства.
// Машина явная: инварианты "только approve возвращает в Bound" и
// "не больше одного pending запроса" проверяются в одном месте.
type State int

const (
	// StateBound - аккаунт привязан (или еще не привязан) и может
	// проходить верификацию при логине
	StateBound State = iota
	// StateVerified - верификация пройдена (терминально для данного логина)
	StateVerified
	// StateMismatched - верификация провалена; вход заблокирован,
	// пользователю доступен запрос сброса
	StateMismatched
	// StateResetRequested - есть pending запрос сброса, ждет решения
	StateResetRequested
)

func (s State) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateVerified:
		return "verified"
	case StateMismatched:
		return "mismatched"
	case StateResetRequested:
		return "reset_requested"
	default:
		return "unknown"
	}
}

// Event - событие workflow
type Event int

const (
	// EventVerifyPass - верификация отпечатка прошла
	EventVerifyPass Event = iota
	// EventVerifyFail - верификация отпечатка провалена
	EventVerifyFail
	// EventResetSubmitted - пользователь подал запрос сброса
	EventResetSubmitted
	// EventResetApproved - администратор одобрил сброс
	EventResetApproved
	// EventResetDenied - администратор отклонил сброс
	EventResetDenied
)

func (e Event) String() string {
	switch e {
	case EventVerifyPass:
		return "verify_pass"
	case EventVerifyFail:
		return "verify_fail"
	case EventResetSubmitted:
		return "reset_submitted"
	case EventResetApproved:
		return "reset_approved"
	case EventResetDenied:
		return "reset_denied"
	default:
		return "unknown"
	}
}

// Transition returns the next state for an event or ErrInvalidTransition.
// Единственный путь обратно в Bound из неудачной верификации лежит через
// ResetRequested + approve; никакое другое событие не перепривязывает.
func Transition(state State, event Event) (State, error) {
	switch state {
	case StateBound:
		switch event {
		case EventVerifyPass:
			return StateVerified, nil
		case EventVerifyFail:
			return StateMismatched, nil
		}
	case StateMismatched:
		switch event {
		case EventVerifyFail:
			// Повторный неудачный логин ничего не меняет
			return StateMismatched, nil
		case EventResetSubmitted:
			return StateResetRequested, nil
		}
	case StateResetRequested:
		switch event {
		case EventResetApproved:
			// Перепривязка: аккаунт снова Bound, уже с новым дайджестом
			return StateBound, nil
		case EventResetDenied:
			return StateMismatched, nil
		}
	}
	return state, ErrInvalidTransition
}
