package job

import (
	"github.com/akolanti/docsync/internal/domain/jobModel"
)

// Service carries the queues and stores shared by handlers and workers.
// Query jobs fan out to the reader pool; sync jobs go to the single writer.
type Service struct {
	QueryChannel      chan jobModel.Job
	SyncChannel       chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	RunStore          jobModel.RunStore
}

type ServiceConfig struct {
	BufferLimit int
	JobStore    jobModel.JobStore
	RunStore    jobModel.RunStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		QueryChannel:      make(chan jobModel.Job, cfg.BufferLimit),
		SyncChannel:       make(chan jobModel.Job, cfg.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          cfg.JobStore,
		RunStore:          cfg.RunStore,
	}
}
