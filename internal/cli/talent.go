package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Strob0t/AgentGuild/internal/domain/talent"
)

var talentCmd = &cobra.Command{
	Use:   "talent",
	Short: "Manage agent talent allocation",
}

var talentShowCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Show an agent's talent tree and allocation",
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

		tree := talent.TreeFor(a.Class)
		fmt.Printf("%s (%s, level %d): %d unspent point(s)\n",
			a.Name, a.Class, a.Level, a.Talents.Points)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIER\tTALENT\tRANK\tEFFECT")
		for _, t := range tree {
			fmt.Fprintf(w, "%d\t%s\t%d/%d\t%s\n",
				t.Tier, t.Name, a.Talents.Allocated[t.ID], t.MaxRanks, t.Effect)
		}
		return w.Flush()
	},
}

var talentAllocateCmd = &cobra.Command{
	Use:   "allocate <agent> <talent-id>",
	Short: "Spend one talent point",
	Args:  cobra.ExactArgs(2),
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
		if err := s.store.AllocateTalent(a.ID, args[1]); err != nil {
			return err
		}
		updated, _ := s.store.Agent(a.ID)
		fmt.Printf("%s now has %s at rank %d (%d point(s) left)\n",
			updated.Name, args[1], updated.Talents.Allocated[args[1]], updated.Talents.Points)
		return nil
	},
}

var talentResetCmd = &cobra.Command{
	Use:   "reset <agent>",
	Short: "Refund all allocated talent points",
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
		if err := s.store.ResetTalents(a.ID); err != nil {
			return err
		}
		updated, _ := s.store.Agent(a.ID)
		fmt.Printf("talents reset; %s has %d unspent point(s)\n", updated.Name, updated.Talents.Points)
		return nil
	},
}

func init() {
	talentCmd.AddCommand(talentShowCmd, talentAllocateCmd, talentResetCmd)
}
