// Package jobs runs the scheduled background work (month-end inventory reset and
// maintenance alerts) on an asynq worker.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"

	// TaskPeriodReset closes the inventory month.
	TaskPeriodReset = "inventory:period_reset"
	// TaskMaintenanceAlerts sweeps maintenance plans for due-date alerts.
	TaskMaintenanceAlerts = "maintenance:alerts"
)

// SchedulePayload carries the time the run stands for. Zero means "now".
type SchedulePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func newTask(typ string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SchedulePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault)), nil
}

func NewPeriodResetTask(at time.Time) (*asynq.Task, error) {
	return newTask(TaskPeriodReset, at)
}

func NewMaintenanceAlertsTask(at time.Time) (*asynq.Task, error) {
	return newTask(TaskMaintenanceAlerts, at)
}

// runTime decodes the payload; cron tasks carry a zero time and run for the current moment.
func runTime(t *asynq.Task) (time.Time, error) {
	var payload SchedulePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return time.Time{}, err
		}
	}
	if payload.ScheduledFor.IsZero() {
		return time.Now(), nil
	}
	return payload.ScheduledFor, nil
}
