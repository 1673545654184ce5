package handlers

import (
	"task-tracker/domain/services"
)

// Services contains everything the HTTP handlers depend on. Snapshots and
// EventStream are nil when their infrastructure is not configured.
type Services struct {
	TaskService  services.TaskService
	Snapshots    SnapshotService
	EventStream  StreamStatusProvider
	AppName      string
	StoreType    string
	HealthChecks []HealthCheck
}

type Handlers struct {
	TaskHandler       *TaskHandler
	SnapshotHandler   *SnapshotHandler
	MonitoringHandler *MonitoringHandler
	HealthHandler     *HealthHandler
}

func NewHandlers(services *Services) *Handlers {
	return &Handlers{
		TaskHandler:       NewTaskHandler(services.TaskService),
		SnapshotHandler:   NewSnapshotHandler(services.Snapshots),
		MonitoringHandler: NewMonitoringHandler(services.EventStream),
		HealthHandler:     NewHealthHandler(services.AppName, services.StoreType, services.HealthChecks),
	}
}
