package model

import "github.com/google/uuid"

// JobName identifies one of the background jobs.
type JobName string

const (
	JobPriceRefresh    JobName = "price_refresh"
	JobRegistryRefresh JobName = "registry_refresh"
	JobDailySnapshot   JobName = "daily_snapshot"
)

// JobRequest is one requested run of a job.
type JobRequest struct {
	Job     JobName
	Trigger Trigger
	RunID   string
}

func NewJobRequest(job JobName, trigger Trigger) JobRequest {
	return JobRequest{Job: job, Trigger: trigger, RunID: uuid.NewString()}
}

// JobResult reports a finished run.
type JobResult struct {
	Request JobRequest
	Err     error
}
