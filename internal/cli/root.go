// Package cli implements the guildctl command tree. Every command talks to
// the core service through the bridge and reads the synced local state
// store, never the wire protocol directly.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strob0t/AgentGuild/internal/adapter/postgres"
	"github.com/Strob0t/AgentGuild/internal/bridge"
	"github.com/Strob0t/AgentGuild/internal/config"
	"github.com/Strob0t/AgentGuild/internal/domain/agent"
	"github.com/Strob0t/AgentGuild/internal/state"
)

var (
	serverURL   string
	configPath  string
	syncTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "guildctl",
	Short: "Control AgentGuild agent sessions from the terminal",
	Long: `guildctl connects to a running agentguild core service and lets you
spawn, inspect and drive agent CLI sessions, and manage their quests
and talents.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "WebSocket URL of the core service (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "Config file path")
	rootCmd.PersistentFlags().DurationVar(&syncTimeout, "timeout", 5*time.Second, "How long to wait for the initial state sync")

	rootCmd.AddCommand(
		listCmd,
		classesCmd,
		spawnCmd,
		inputCmd,
		killCmd,
		resizeCmd,
		watchCmd,
		questCmd,
		talentCmd,
	)
}

// session bundles the connected client stack for one command invocation.
type session struct {
	cfg    *config.Config
	store  *state.Store
	bridge *bridge.Bridge
	close  func()
}

// connect builds the store and bridge, connects, and waits for the init
// snapshot so commands operate on synced state.
func connect(ctx context.Context) (*session, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Bridge.URL = serverURL
	}

	// Keep CLI output clean; bridge internals log at warn and above.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	opts := []state.Option{state.WithIdleThreshold(cfg.Idle.Threshold)}
	closers := []func(){}
	if cfg.Postgres.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		opts = append(opts, state.WithPersistence(postgres.NewStore(pool)))
	}

	st := state.New(opts...)
	br := bridge.New(cfg.Bridge, st, log, bridge.WithNotice(func(msg string) {
		fmt.Fprintf(os.Stderr, "! %s\n", msg)
	}))
	st.SetInputSender(br)

	if err := br.Connect(ctx); err != nil {
		return nil, err
	}

	select {
	case <-br.Synced():
	case <-time.After(syncTimeout):
		_ = br.Close()
		return nil, fmt.Errorf("timed out waiting for state sync from %s", cfg.Bridge.URL)
	case <-ctx.Done():
		_ = br.Close()
		return nil, ctx.Err()
	}

	return &session{
		cfg:    cfg,
		store:  st,
		bridge: br,
		close: func() {
			_ = br.Close()
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

// resolveAgent finds an agent by exact id, then by exact name, then by
// unique name prefix.
func resolveAgent(st *state.Store, ref string) (*agent.Agent, error) {
	if a, ok := st.Agent(ref); ok {
		return a, nil
	}
	var matches []*agent.Agent
	for _, a := range st.Agents() {
		if a.Name == ref {
			return a, nil
		}
		if strings.HasPrefix(a.Name, ref) || strings.HasPrefix(a.ID, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no agent matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous agent %q: %d matches", ref, len(matches))
	}
}
