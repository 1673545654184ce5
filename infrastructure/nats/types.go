package nats

import "task-tracker/domain/ports"

const (
	DefaultStreamName = "TASK_EVENTS"
	SubjectPrefix     = "tasks."
	SubjectWildcard   = SubjectPrefix + ">"
)

// Subject maps an event type to its subject, e.g. tasks.completed.
func Subject(t ports.TaskEventType) string {
	return SubjectPrefix + string(t)
}

// StreamStatus reports the event stream for the health endpoint.
type StreamStatus struct {
	Name     string `json:"name"`
	Messages uint64 `json:"messages"`
	Bytes    uint64 `json:"bytes"`
	FirstSeq uint64 `json:"firstSeq"`
	LastSeq  uint64 `json:"lastSeq"`
}
