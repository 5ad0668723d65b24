// Command guildctl is the terminal client for a running agentguild core
// service.
package main

import "github.com/Strob0t/AgentGuild/internal/cli"

func main() {
	cli.Execute()
}
