package ws

import "encoding/json"

// Server -> client event types.
const (
	EventInit         = "init"
	EventAgentSpawned = "agent:spawned"
	EventAgentOutput  = "agent:output"
	EventAgentStatus  = "agent:status"
	EventAgentExit    = "agent:exit"
	EventError        = "error"
)

// Client -> server command types.
const (
	CmdAgentSpawn  = "agent:spawn"
	CmdAgentInput  = "agent:input"
	CmdAgentKill   = "agent:kill"
	CmdAgentResize = "agent:resize"
	CmdAgentsList  = "agents:list"
)

// Message is the envelope for all WebSocket traffic, discriminated by Type.
// The type vocabulary and payload field names are the wire contract; both
// sides are free to represent them differently internally.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AgentSnapshot is the wire representation of one agent's current server
// state. Buffer carries what the server retains (at most the last 100
// lines), not history.
type AgentSnapshot struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Class            string   `json:"class"`
	Provider         string   `json:"provider"`
	WorkingDirectory string   `json:"workingDirectory"`
	GitBranch        string   `json:"gitBranch,omitempty"`
	Status           string   `json:"status"`
	Activity         string   `json:"activity"`
	Buffer           []string `json:"buffer"`
}

// InitEvent carries the full current agent list, sent once per connection.
type InitEvent struct {
	Agents []AgentSnapshot `json:"agents"`
}

// AgentSpawnedEvent announces a newly spawned agent.
type AgentSpawnedEvent struct {
	Agent AgentSnapshot `json:"agent"`
}

// AgentOutputEvent carries a raw output chunk, not yet ANSI-stripped.
type AgentOutputEvent struct {
	AgentID string `json:"agentId"`
	Data    string `json:"data"`
}

// AgentStatusEvent carries a status/activity change.
type AgentStatusEvent struct {
	AgentID         string `json:"agentId"`
	Status          string `json:"status"`
	Activity        string `json:"activity,omitempty"`
	ActivityDetails string `json:"activityDetails,omitempty"`
	GitBranch       string `json:"gitBranch,omitempty"`
}

// AgentExitEvent is the only authoritative "agent is gone" signal.
type AgentExitEvent struct {
	AgentID  string `json:"agentId"`
	ExitCode int    `json:"exitCode"`
}

// ErrorEvent carries a human-readable, non-fatal error message.
type ErrorEvent struct {
	Message string `json:"message"`
}

// SpawnCommand asks the supervisor to create a new agent session.
type SpawnCommand struct {
	Name          string `json:"name"`
	ClassID       string `json:"classId"`
	WorkingDir    string `json:"workingDir"`
	InitialPrompt string `json:"initialPrompt,omitempty"`
}

// InputCommand delivers user keystrokes or a full line to a session.
type InputCommand struct {
	AgentID string `json:"agentId"`
	Text    string `json:"text"`
}

// KillCommand terminates a session. Idempotent on the server side.
type KillCommand struct {
	AgentID string `json:"agentId"`
}

// ResizeCommand forwards a terminal resize.
type ResizeCommand struct {
	AgentID string `json:"agentId"`
	Cols    uint16 `json:"cols"`
	Rows    uint16 `json:"rows"`
}

// NewMessage marshals a payload into a Message envelope.
func NewMessage(eventType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Payload: data}, nil
}
