package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/state"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List live agents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		agents := s.store.Agents()
		if len(agents) == 0 {
			fmt.Println("no live agents")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCLASS\tLVL\tSTATUS\tACTIVITY\tQUEST\tATTENTION")
		for _, a := range agents {
			questLabel := "-"
			if a.CurrentQuest != nil {
				questLabel = string(a.CurrentQuest.Status)
			}
			attention := ""
			if a.NeedsAttention {
				attention = string(a.AttentionReason)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				shortID(a.ID), a.Name, a.Class, a.Level, a.Status, a.Activity, questLabel, attention)
		}
		return w.Flush()
	},
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List agent classes and their CLI providers",
	RunE: func(_ *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tINVOCATION")
		for _, c := range agent.Classes() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Provider, c.Invocation)
		}
		return w.Flush()
	},
}

var (
	spawnClass  string
	spawnDir    string
	spawnPrompt string
)

var spawnCmd = &cobra.Command{
	Use:   "spawn <name>",
	Short: "Spawn a new agent session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		dir := spawnDir
		if dir == "" {
			dir, err = os.Getwd()
			if err != nil {
				return err
			}
		}
		if err := s.bridge.SpawnAgent(args[0], spawnClass, dir, spawnPrompt); err != nil {
			return err
		}
		fmt.Printf("spawn requested: %s (%s) in %s\n", args[0], spawnClass, dir)
		return nil
	},
}

var inputCmd = &cobra.Command{
	Use:   "input <agent> <text...>",
	Short: "Send a line of text to an agent session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		a, err := resolveAgent(s.store, args[0])
		if err != nil {
			return err
		}
		if err := s.bridge.SendInput(a.ID, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		s.store.ResolveAttention(a.ID)
		fmt.Printf("input sent to %s\n", a.Name)
		return nil
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <agent>",
	Short: "Terminate an agent session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		a, err := resolveAgent(s.store, args[0])
		if err != nil {
			return err
		}
		if err := s.bridge.Kill(a.ID); err != nil {
			return err
		}
		fmt.Printf("kill requested for %s\n", a.Name)
		return nil
	},
}

var (
	resizeCols uint16
	resizeRows uint16
)

var resizeCmd = &cobra.Command{
	Use:   "resize <agent>",
	Short: "Resize an agent's terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		a, err := resolveAgent(s.store, args[0])
		if err != nil {
			return err
		}
		return s.bridge.Resize(a.ID, resizeCols, resizeRows)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [agent]",
	Short: "Stream agent output and state changes until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		var filterID string
		if len(args) == 1 {
			a, err := resolveAgent(s.store, args[0])
			if err != nil {
				return err
			}
			filterID = a.ID
		}

		s.store.Subscribe(func(ev state.Event) {
			if filterID != "" && ev.AgentID != filterID {
				return
			}
			a, ok := s.store.Agent(ev.AgentID)
			name := ev.AgentID
			if ok {
				name = a.Name
			}
			switch ev.Type {
			case state.EventOutputAppended:
				lines := s.store.TerminalLines(ev.AgentID)
				if len(lines) > 0 {
					fmt.Printf("[%s] %s\n", name, lines[len(lines)-1])
				}
			case state.EventAgentUpdated:
				if ok {
					fmt.Printf("[%s] status=%s activity=%s\n", name, a.Status, a.Activity)
				}
			case state.EventAttention:
				if ok && a.NeedsAttention {
					fmt.Printf("[%s] needs attention: %s\n", name, a.AttentionReason)
				}
			case state.EventAgentRemoved:
				fmt.Printf("[%s] exited\n", name)
			case state.EventQuestChanged:
				if ok && a.CurrentQuest != nil {
					fmt.Printf("[%s] quest %s: %s\n", name, a.CurrentQuest.Status, a.CurrentQuest.Description)
				}
			}
		})

		// Run the idle sweep locally while watching so idle_timeout attention
		// fires even without a long-lived dashboard.
		go func() { _ = s.store.RunIdleSweeper(cmd.Context(), s.cfg.Idle.SweepInterval) }()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	spawnCmd.Flags().StringVar(&spawnClass, "class", "warrior", "Agent class: warrior, mage, rogue, guardian, shaman")
	spawnCmd.Flags().StringVar(&spawnDir, "dir", "", "Working directory (default: current directory)")
	spawnCmd.Flags().StringVar(&spawnPrompt, "prompt", "", "Initial prompt typed into the CLI once ready")
	resizeCmd.Flags().Uint16Var(&resizeCols, "cols", 120, "Terminal columns")
	resizeCmd.Flags().Uint16Var(&resizeRows, "rows", 32, "Terminal rows")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
