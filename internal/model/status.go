package model

// AttendanceStatus is one of the four attendance marks.
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "출석"
	AttendanceLate      AttendanceStatus = "지각"
	AttendanceLeftEarly AttendanceStatus = "조퇴"
	AttendanceAbsent    AttendanceStatus = "결석"
)

// AttendanceStatuses lists the statuses in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendancePresent,
	AttendanceLate,
	AttendanceLeftEarly,
	AttendanceAbsent,
}

// Valid reports whether s is one of the four allowed statuses.
func (s AttendanceStatus) Valid() bool {
	for _, v := range AttendanceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskStatus is the workflow state of a Task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// taskTransitions is the permitted transition set. No state is terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskTodo:       {TaskInProgress, TaskDone},
	TaskInProgress: {TaskDone, TaskTodo},
	TaskDone:       {TaskInProgress, TaskTodo},
}

// CanTransition reports whether a task may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to TaskStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority ranks a Task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
