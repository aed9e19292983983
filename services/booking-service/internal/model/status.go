package model

// Status is the closed set of appointment lifecycle states.
//
//	scheduled → confirmed → completed
//	scheduled → cancelled
//	confirmed → cancelled
//
// completed and cancelled are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Live reports whether the appointment still holds its slot. Only live
// appointments count toward the occupied set and the uniqueness constraint.
func (s Status) Live() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
