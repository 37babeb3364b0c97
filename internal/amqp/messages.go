package amqp

import (
	"encoding/json"
	"time"
)

// Job kinds understood by the worker.
const (
	JobMonthly  = "monthly"
	JobBalances = "balances"
)

// RecomputeJob asks the worker to rebuild derived data for one user: monthly
// aggregates or account balances. The worker re-reads everything it needs
// from storage, so the message stays small.
type RecomputeJob struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecomputeJob(kind, userID string) *RecomputeJob {
	return &RecomputeJob{
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (j *RecomputeJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

func RecomputeJobFromJSON(data []byte) (*RecomputeJob, error) {
	var j RecomputeJob
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
