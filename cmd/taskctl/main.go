package main

import (
	"task-tracker/infrastructure/nats"
	"task-tracker/interfaces/cli"
	"task-tracker/pkg/di"
)

func main() {
	cli.Execute(load)
}

// load wires the same container the API uses, minus the scheduler, with logs
// kept off stdout.
func load(storeType string) (*cli.Deps, error) {
	container := di.NewContainer(
		di.WithStore(storeType),
		di.WithLogOutput("stderr"),
		di.WithLogLevel("warn"),
		di.WithoutScheduler(),
	)
	if err := container.Initialize(); err != nil {
		_ = container.Cleanup()
		return nil, err
	}

	deps := &cli.Deps{
		Tasks:     container.TaskService,
		Snapshots: container.SnapshotService,
		Close:     container.Cleanup,
	}
	if container.NATSClient != nil {
		deps.Events = nats.NewSubscriber(container.NATSClient)
	}
	return deps, nil
}
