package agent

// allowed is the explicit status transition table. Both the classifier
// projection and manual actions (approve, reject, kill) go through it, so
// the two paths can never fight over the status field: a write that is not
// in the table is dropped by the caller.
var allowed = map[Status][]Status{
	StatusSpawning:  {StatusIdle, StatusWorking, StatusWaiting, StatusError},
	StatusIdle:      {StatusWorking, StatusWaiting, StatusError, StatusBlocked},
	StatusWorking:   {StatusIdle, StatusWaiting, StatusCompleted, StatusError, StatusBlocked},
	StatusWaiting:   {StatusWorking, StatusIdle, StatusCompleted, StatusError},
	StatusCompleted: {StatusWorking, StatusIdle, StatusWaiting},
	StatusError:     {StatusWorking, StatusIdle, StatusWaiting},
	StatusBlocked:   {StatusWorking, StatusIdle, StatusError},
}

// CanTransition reports whether moving from one status to another is
// permitted. Writing the current status again is always a no-op and allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
