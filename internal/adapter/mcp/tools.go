package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgentGuild/internal/supervisor"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listAgentsTool(),
		s.spawnAgentTool(),
		s.sendInputTool(),
		s.killAgentTool(),
		s.readTerminalTool(),
	)
}

func (s *Server) listAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_agents",
		mcplib.WithDescription("List all live agent sessions with their class, status and activity"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListAgents}
}

func (s *Server) spawnAgentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("spawn_agent",
		mcplib.WithDescription("Spawn a new agent CLI session in a working directory"),
		mcplib.WithString("name",
			mcplib.Required(),
			mcplib.Description("Display name for the agent"),
		),
		mcplib.WithString("class_id",
			mcplib.Description("Agent class: warrior, mage, rogue, guardian or shaman (default warrior)"),
		),
		mcplib.WithString("working_dir",
			mcplib.Required(),
			mcplib.Description("Directory the agent session starts in; must exist"),
		),
		mcplib.WithString("initial_prompt",
			mcplib.Description("Optional prompt typed into the CLI once it is ready"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSpawnAgent}
}

func (s *Server) sendInputTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("send_input",
		mcplib.WithDescription("Send a line of text to a live agent session"),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent session id"),
		),
		mcplib.WithString("text",
			mcplib.Required(),
			mcplib.Description("Text to deliver; a newline is appended"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSendInput}
}

func (s *Server) killAgentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("kill_agent",
		mcplib.WithDescription("Terminate an agent session. Killing an already-gone agent is not an error."),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent session id"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleKillAgent}
}

func (s *Server) readTerminalTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("read_terminal",
		mcplib.WithDescription("Read the retained terminal output of an agent (at most the last 100 lines)"),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent session id"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleReadTerminal}
}

func (s *Server) handleListAgents(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	data, err := json.Marshal(s.sup.Agents())
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal agents", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleSpawnAgent(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	name, err := req.RequireString("name")
	if err != nil {
		return mcplib.NewToolResultError("name is required"), nil
	}
	workingDir, err := req.RequireString("working_dir")
	if err != nil {
		return mcplib.NewToolResultError("working_dir is required"), nil
	}

	id, err := s.sup.Spawn(ctx, supervisor.SpawnRequest{
		Name:          name,
		ClassID:       req.GetString("class_id", ""),
		WorkingDir:    workingDir,
		InitialPrompt: req.GetString("initial_prompt", ""),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to spawn agent %s", name), err,
		), nil
	}
	data, _ := json.Marshal(map[string]string{"id": id})
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleSendInput(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	agentID, err := req.RequireString("agent_id")
	if err != nil {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcplib.NewToolResultError("text is required"), nil
	}
	if err := s.sup.SendInput(agentID, text); err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to send input to agent %s", agentID), err,
		), nil
	}
	return mcplib.NewToolResultText(`{"delivered":true}`), nil
}

func (s *Server) handleKillAgent(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	agentID, err := req.RequireString("agent_id")
	if err != nil {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	_ = s.sup.Kill(agentID)
	return mcplib.NewToolResultText(`{"killed":true}`), nil
}

func (s *Server) handleReadTerminal(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	agentID, err := req.RequireString("agent_id")
	if err != nil {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	for _, snap := range s.sup.Agents() {
		if snap.ID == agentID {
			return mcplib.NewToolResultText(strings.Join(snap.Buffer, "\n")), nil
		}
	}
	return mcplib.NewToolResultError(fmt.Sprintf("agent not found: %s", agentID)), nil
}
