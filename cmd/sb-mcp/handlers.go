package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/standardbots/sb-mcp/internal/client"
	"github.com/standardbots/sb-mcp/internal/common"
)

var startedAt = time.Now()

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// toolLogger returns a logger with a fresh correlation ID for one invocation.
func toolLogger(logger *common.Logger, tool string) *common.Logger {
	l := logger.WithCorrelationId(uuid.New().String())
	l.Info().Str("tool", tool).Msg("Tool invoked")
	return l
}

// clientError renders a client-layer failure, keeping the error taxonomy
// visible to the MCP caller.
func clientError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, client.ErrInvalidArgument):
		return errorResult(fmt.Sprintf("Invalid argument: %v", err))
	case errors.Is(err, client.ErrNotFound):
		return errorResult(fmt.Sprintf("Not found: %v", err))
	default:
		return errorResult(fmt.Sprintf("Error: %v", err))
	}
}

// getVariables extracts the optional variables object from a request.
func getVariables(request mcp.CallToolRequest) (map[string]interface{}, error) {
	raw, ok := request.GetArguments()["variables"]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("variables must be an object mapping names to values")
	}
	return m, nil
}

// --- Handlers ---

func handlePlayRoutine(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "play_routine")

		routineID, err := request.RequireString("routine_id")
		if err != nil || routineID == "" {
			return errorResult("Invalid argument: routine_id parameter is required"), nil
		}

		variables, err := getVariables(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Invalid argument: %v", err)), nil
		}

		body, err := sb.PlayRoutine(ctx, routineID, variables)
		if err != nil {
			l.Error().Err(err).Str("routine_id", routineID).Msg("Play failed")
			return clientError(err), nil
		}

		l.Info().Str("routine_id", routineID).Int("variables", len(variables)).Msg("Routine started")
		return textResult(formatStatusPayload(fmt.Sprintf("Routine `%s` started.", routineID), body)), nil
	}
}

func handlePauseRoutine(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "pause_routine")

		routineID := request.GetString("routine_id", "")

		body, err := sb.PauseRoutine(ctx, routineID)
		if err != nil {
			l.Error().Err(err).Str("routine_id", routineID).Msg("Pause failed")
			return clientError(err), nil
		}

		return textResult(formatStatusPayload("Routine paused.", body)), nil
	}
}

func handleStopRoutine(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "stop_routine")

		body, err := sb.StopRoutine(ctx)
		if err != nil {
			// Safety relevant: the caller must know the stop may not have
			// reached the robot.
			l.Error().Err(err).Msg("Stop failed")
			return clientError(err), nil
		}

		return textResult(formatStatusPayload("Routine stopped. All motion halted.", body)), nil
	}
}

func handleListRoutines(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "list_routines")

		limit := request.GetInt("limit", 10)
		offset := request.GetInt("offset", 0)

		body, err := sb.ListRoutines(ctx, limit, offset)
		if err != nil {
			l.Error().Err(err).Msg("List routines failed")
			return clientError(err), nil
		}

		routines, err := decodeRoutineList(body)
		if err != nil {
			return errorResult(fmt.Sprintf("Error parsing response: %v", err)), nil
		}

		return textResult(formatRoutineList(routines, limit, offset)), nil
	}
}

func handleGetRoutine(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "get_routine")

		routineID, err := request.RequireString("routine_id")
		if err != nil || routineID == "" {
			return errorResult("Invalid argument: routine_id parameter is required"), nil
		}

		body, err := sb.GetRoutine(ctx, routineID)
		if err != nil {
			l.Error().Err(err).Str("routine_id", routineID).Msg("Get routine failed")
			return clientError(err), nil
		}

		// Routine detail is controller-defined — pass it through unmodified
		return textResult(string(body)), nil
	}
}

func handleGetRoutineState(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "get_routine_state")

		routineID := request.GetString("routine_id", "")

		body, err := sb.GetRoutineState(ctx, routineID)
		if err != nil {
			l.Error().Err(err).Str("routine_id", routineID).Msg("Get routine state failed")
			return clientError(err), nil
		}

		return textResult(formatRoutineState(body)), nil
	}
}

func handleGetStepVariables(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := toolLogger(logger, "get_step_variables")

		routineID := request.GetString("routine_id", "")
		stepIDMap := request.GetBool("step_id_map", false)

		body, err := sb.GetStepVariables(ctx, routineID, stepIDMap)
		if err != nil {
			l.Error().Err(err).Str("routine_id", routineID).Msg("Get step variables failed")
			return clientError(err), nil
		}

		return textResult(formatStepVariables(body)), nil
	}
}

func handleGetDiagnostics(sb *client.StandardBotsClient, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var out strings.Builder
		out.WriteString("# Server Diagnostics\n\n")
		out.WriteString("| Field | Value |\n")
		out.WriteString("|-------|-------|\n")
		out.WriteString(fmt.Sprintf("| Version | %s |\n", common.GetFullVersion()))
		out.WriteString(fmt.Sprintf("| Uptime | %s |\n", time.Since(startedAt).Round(time.Second)))
		out.WriteString(fmt.Sprintf("| Controller | %s |\n", sb.BaseURL()))
		out.WriteString("\n")

		var (
			logs map[string]string
			err  error
		)
		if cid := request.GetString("correlation_id", ""); cid != "" {
			logs, err = logger.GetMemoryLogsForCorrelation(cid)
			out.WriteString(fmt.Sprintf("## Logs for `%s`\n\n", cid))
		} else {
			logs, err = logger.GetMemoryLogsWithLimit(request.GetInt("limit", 50))
			out.WriteString("## Recent Logs\n\n")
		}
		if err != nil {
			out.WriteString(fmt.Sprintf("Log query failed: %v\n", err))
			return textResult(out.String()), nil
		}

		if len(logs) == 0 {
			out.WriteString("No log entries.\n")
			return textResult(out.String()), nil
		}

		keys := make([]string, 0, len(logs))
		for k := range logs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.WriteString(logs[k])
			out.WriteString("\n")
		}

		return textResult(out.String()), nil
	}
}
