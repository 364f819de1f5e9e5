// Package models defines the request/response shapes exchanged with the
// Standard Bots routine editor API. Payload internals are owned by the
// controller; only top-level deserialization happens here.
package models

import "encoding/json"

// RobotStatus is the operational state reported by the robot controller.
type RobotStatus string

const (
	StatusIdle                RobotStatus = "Idle"
	StatusRunningAdHocCommand RobotStatus = "RunningAdHocCommand"
	StatusRoutineRunning      RobotStatus = "RoutineRunning"
	StatusAntigravity         RobotStatus = "Antigravity"
	StatusAntigravitySlow     RobotStatus = "AntigravitySlow"
	StatusFailure             RobotStatus = "Failure"
	StatusRecovering          RobotStatus = "Recovering"
)

// Routine is a pre-authored motion/task sequence defined in the Routine
// Editor UI. Steps are opaque to this program.
type Routine struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Steps       []json.RawMessage `json:"steps,omitempty"`
	Version     string            `json:"version,omitempty"`
	Author      string            `json:"author,omitempty"`
}

// RoutineList is the paginated listing returned by the routine editor.
type RoutineList struct {
	Items []Routine `json:"items"`
	Total int       `json:"total,omitempty"`
}

// RoutineState is the execution state of a running routine.
type RoutineState struct {
	IsPaused                      bool    `json:"is_paused"`
	CurrentStepID                 string  `json:"current_step_id"`
	StartTime                     string  `json:"start_time"`
	RunTimeSeconds                float64 `json:"run_time_seconds"`
	CycleCount                    int     `json:"cycle_count"`
	TotalExpectedCycles           int     `json:"total_expected_cycles"`
	ShouldNextArmMoveBeGuidedMode bool    `json:"should_next_arm_move_be_guided_mode"`
	IsPreflightTestRun            bool    `json:"is_preflight_test_run"`
}

// StepVariables holds the variable values of a running routine, with an
// optional mapping of variable names to the step IDs that own them.
type StepVariables struct {
	Variables map[string]string `json:"variables"`
	StepIDMap map[string]string `json:"step_id_map,omitempty"`
}
