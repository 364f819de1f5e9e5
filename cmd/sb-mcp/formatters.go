package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbots/sb-mcp/internal/models"
)

// decodeRoutineList parses a routine listing. The controller may return
// either an object with an items array or a bare array.
func decodeRoutineList(body []byte) ([]models.Routine, error) {
	var list models.RoutineList
	if err := json.Unmarshal(body, &list); err == nil && list.Items != nil {
		return list.Items, nil
	}
	var routines []models.Routine
	if err := json.Unmarshal(body, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// formatRoutineList formats routine summaries as a markdown table.
func formatRoutineList(routines []models.Routine, limit, offset int) string {
	var sb strings.Builder

	sb.WriteString("# Routines\n\n")
	if len(routines) == 0 {
		sb.WriteString("No routines defined in the Routine Editor.\n")
		return sb.String()
	}

	sb.WriteString("| ID | Name | Steps | Description |\n")
	sb.WriteString("|----|------|-------|-------------|\n")
	for _, r := range routines {
		desc := r.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", r.ID, r.Name, len(r.Steps), desc))
	}
	sb.WriteString(fmt.Sprintf("\n%d routine(s), offset %d, limit %d\n", len(routines), offset, limit))
	return sb.String()
}

// formatRoutineState formats a routine state payload as markdown. A null or
// empty payload means nothing is running.
func formatRoutineState(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return fmt.Sprintf("No routine is currently running (status: %s).\n", models.StatusIdle)
	}

	var state models.RoutineState
	if err := json.Unmarshal(body, &state); err != nil {
		// Controller-defined shape changed — return it untouched
		return string(body)
	}

	var sb strings.Builder
	sb.WriteString("# Routine State\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Paused | %t |\n", state.IsPaused))
	sb.WriteString(fmt.Sprintf("| Current Step | %s |\n", state.CurrentStepID))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", state.StartTime))
	sb.WriteString(fmt.Sprintf("| Run Time | %.1fs |\n", state.RunTimeSeconds))
	sb.WriteString(fmt.Sprintf("| Cycles | %d / %d |\n", state.CycleCount, state.TotalExpectedCycles))
	if state.IsPreflightTestRun {
		sb.WriteString("| Preflight Test Run | true |\n")
	}
	if state.ShouldNextArmMoveBeGuidedMode {
		sb.WriteString("| Next Arm Move Guided | true |\n")
	}
	return sb.String()
}

// formatStepVariables formats a step variables payload as markdown.
func formatStepVariables(body []byte) string {
	var vars models.StepVariables
	if err := json.Unmarshal(body, &vars); err != nil {
		return string(body)
	}

	if len(vars.Variables) == 0 {
		return "No step variables in the running routine.\n"
	}

	names := make([]string, 0, len(vars.Variables))
	for name := range vars.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# Step Variables\n\n")
	if len(vars.StepIDMap) > 0 {
		sb.WriteString("| Variable | Value | Step |\n")
		sb.WriteString("|----------|-------|------|\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", name, vars.Variables[name], vars.StepIDMap[name]))
		}
	} else {
		sb.WriteString("| Variable | Value |\n")
		sb.WriteString("|----------|-------|\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", name, vars.Variables[name]))
		}
	}
	return sb.String()
}

// formatStatusPayload renders a confirmation line followed by the
// controller's status payload, pretty-printed when it is JSON.
func formatStatusPayload(summary string, body []byte) string {
	var sb strings.Builder
	sb.WriteString(summary)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		sb.WriteString("\n")
		return sb.String()
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, trimmed, "", "  "); err != nil {
		sb.WriteString("\n\n")
		sb.Write(trimmed)
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("\n\n```json\n")
	sb.Write(pretty.Bytes())
	sb.WriteString("\n```\n")
	return sb.String()
}
