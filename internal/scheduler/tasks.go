package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskRiskScanAll runs the risk pipeline over every account.
const TaskRiskScanAll = "risk.scan.all"

// TaskRiskScanAccount runs the risk pipeline for one account, used for
// targeted refreshes after bulk imports.
const TaskRiskScanAccount = "risk.scan.account"

type RiskScanAccountPayload struct {
	AccountID string `json:"accountId"`
}

func NewRiskScanAllTask() *asynq.Task {
	return asynq.NewTask(TaskRiskScanAll, nil)
}

func NewRiskScanAccountTask(payload RiskScanAccountPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRiskScanAccount, data), nil
}

func ParseRiskScanAccountPayload(task *asynq.Task) (RiskScanAccountPayload, error) {
	var payload RiskScanAccountPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RiskScanAccountPayload{}, err
	}
	return payload, nil
}
