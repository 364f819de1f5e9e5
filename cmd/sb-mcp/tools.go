package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/standardbots/sb-mcp/internal/client"
	"github.com/standardbots/sb-mcp/internal/common"
)

// registerTools registers all MCP tools on the server, wiring each to a
// handler that calls the routine editor API via the Standard Bots client.
func registerTools(s *server.MCPServer, sb *client.StandardBotsClient, logger *common.Logger) {
	s.AddTool(createPlayRoutineTool(), handlePlayRoutine(sb, logger))
	s.AddTool(createPauseRoutineTool(), handlePauseRoutine(sb, logger))
	s.AddTool(createStopRoutineTool(), handleStopRoutine(sb, logger))
	s.AddTool(createListRoutinesTool(), handleListRoutines(sb, logger))
	s.AddTool(createGetRoutineTool(), handleGetRoutine(sb, logger))
	s.AddTool(createGetRoutineStateTool(), handleGetRoutineState(sb, logger))
	s.AddTool(createGetStepVariablesTool(), handleGetStepVariables(sb, logger))
	s.AddTool(createGetDiagnosticsTool(), handleGetDiagnostics(sb, logger))
}

func createPlayRoutineTool() mcp.Tool {
	return mcp.NewTool("play_routine",
		mcp.WithDescription("Play a routine with optional initial variable states. The routine must be defined in the Routine Editor UI."),
		mcp.WithString("routine_id", mcp.Required(), mcp.Description("ID of the routine to play")),
		mcp.WithObject("variables", mcp.Description("Optional mapping of variable names to initial values, forwarded to the controller verbatim")),
	)
}

func createPauseRoutineTool() mcp.Tool {
	return mcp.NewTool("pause_routine",
		mcp.WithDescription("Pause a running routine. Targets the currently running routine when routine_id is omitted."),
		mcp.WithString("routine_id", mcp.Description("ID of the routine to pause. Omit to pause whatever routine is running.")),
	)
}

func createStopRoutineTool() mcp.Tool {
	return mcp.NewTool("stop_routine",
		mcp.WithDescription("Stop the running routine and all ongoing motions. Always issues the request — never short-circuits on assumed robot state."),
	)
}

func createListRoutinesTool() mcp.Tool {
	return mcp.NewTool("list_routines",
		mcp.WithDescription("List routines defined in the Routine Editor UI."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of routines to return (default: 10)")),
		mcp.WithNumber("offset", mcp.Description("Number of routines to skip for pagination (default: 0)")),
	)
}

func createGetRoutineTool() mcp.Tool {
	return mcp.NewTool("get_routine",
		mcp.WithDescription("Get routine data by ID."),
		mcp.WithString("routine_id", mcp.Required(), mcp.Description("ID of the routine to fetch")),
	)
}

func createGetRoutineStateTool() mcp.Tool {
	return mcp.NewTool("get_routine_state",
		mcp.WithDescription("Get the execution state from a running routine: current step, pause state, run time, and cycle counts."),
		mcp.WithString("routine_id", mcp.Description("ID of the routine to check. Omit to query whatever routine is running.")),
	)
}

func createGetStepVariablesTool() mcp.Tool {
	return mcp.NewTool("get_step_variables",
		mcp.WithDescription("Get all step variables from a running routine."),
		mcp.WithString("routine_id", mcp.Description("ID of the routine. Omit to query whatever routine is running.")),
		mcp.WithBoolean("step_id_map", mcp.Description("Include the mapping of variables to step IDs (default: false)")),
	)
}

func createGetDiagnosticsTool() mcp.Tool {
	return mcp.NewTool("get_diagnostics",
		mcp.WithDescription("Get MCP server diagnostics: version, uptime, configured controller, and recent log entries."),
		mcp.WithString("correlation_id", mcp.Description("If provided, returns logs for a specific correlation ID")),
		mcp.WithNumber("limit", mcp.Description("Maximum recent log entries (default: 50)")),
	)
}
