package supervisor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/AgentGuild/internal/adapter/ws"
)

// Dispatch routes one client command to the matching supervisor operation.
// Spawn failures are typed errors to the requester, never fatal to the
// connection or to other sessions.
func (s *Supervisor) Dispatch(ctx context.Context, msg ws.Message, reply func(ws.Message)) {
	switch msg.Type {
	case ws.CmdAgentsList:
		out, err := ws.NewMessage(ws.EventInit, ws.InitEvent{Agents: s.Agents()})
		if err != nil {
			slog.Error("init marshal failed", "error", err)
			return
		}
		reply(out)

	case ws.CmdAgentSpawn:
		var cmd ws.SpawnCommand
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.replyError(reply, "malformed agent:spawn payload")
			return
		}
		if _, err := s.Spawn(ctx, SpawnRequest{
			Name:          cmd.Name,
			ClassID:       cmd.ClassID,
			WorkingDir:    cmd.WorkingDir,
			InitialPrompt: cmd.InitialPrompt,
		}); err != nil {
			s.replyError(reply, "spawn failed: "+err.Error())
		}

	case ws.CmdAgentInput:
		var cmd ws.InputCommand
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.replyError(reply, "malformed agent:input payload")
			return
		}
		if err := s.SendInput(cmd.AgentID, cmd.Text); err != nil {
			slog.Warn("send input failed", "agent_id", cmd.AgentID, "error", err)
		}

	case ws.CmdAgentKill:
		var cmd ws.KillCommand
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.replyError(reply, "malformed agent:kill payload")
			return
		}
		_ = s.Kill(cmd.AgentID)

	case ws.CmdAgentResize:
		var cmd ws.ResizeCommand
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.replyError(reply, "malformed agent:resize payload")
			return
		}
		if err := s.Resize(cmd.AgentID, cmd.Cols, cmd.Rows); err != nil {
			slog.Warn("resize failed", "agent_id", cmd.AgentID, "error", err)
		}

	default:
		s.replyError(reply, "unknown message type: "+msg.Type)
	}
}

func (s *Supervisor) replyError(reply func(ws.Message), text string) {
	out, err := ws.NewMessage(ws.EventError, ws.ErrorEvent{Message: text})
	if err != nil {
		return
	}
	reply(out)
}
