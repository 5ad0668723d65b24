package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var questCmd = &cobra.Command{
	Use:   "quest",
	Short: "Manage agent quests",
}

var questStartCmd = &cobra.Command{
	Use:   "start <agent> <description...>",
	Short: "Assign a new quest to an agent",
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
		description := strings.Join(args[1:], " ")
		q, err := s.store.StartQuest(a.ID, description)
		if err != nil {
			return err
		}
		// Also brief the agent itself so the quest is not a bookkeeping
		// fiction.
		if err := s.bridge.SendInput(a.ID, description); err != nil {
			return err
		}
		fmt.Printf("quest %s started for %s\n", shortID(q.ID), a.Name)
		return nil
	},
}

var questCompleteCmd = &cobra.Command{
	Use:   "complete <agent>",
	Short: "Move an agent's quest to review",
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
		if err := s.store.CompleteQuest(a.ID); err != nil {
			return err
		}
		fmt.Printf("quest for %s is pending review\n", a.Name)
		return nil
	},
}

var questApproveCmd = &cobra.Command{
	Use:   "approve <agent>",
	Short: "Approve an agent's quest and award experience",
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
		if err := s.store.ApproveQuest(a.ID); err != nil {
			return err
		}
		updated, _ := s.store.Agent(a.ID)
		fmt.Printf("quest approved; %s is level %d (%d xp, %d talent points)\n",
			updated.Name, updated.Level, updated.Experience, updated.Talents.Points)
		return nil
	},
}

var questRejectCmd = &cobra.Command{
	Use:   "reject <agent> <feedback...>",
	Short: "Reject an agent's quest and send the feedback to its session",
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
		if err := s.store.RejectQuest(a.ID, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Printf("quest rejected; feedback delivered to %s\n", a.Name)
		return nil
	},
}

var questShowCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Show an agent's current quest and history",
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
		if a.CurrentQuest == nil {
			fmt.Printf("%s has no active quest\n", a.Name)
		} else {
			q := a.CurrentQuest
			fmt.Printf("current: [%s] %s\n", q.Status, q.Description)
			for _, f := range q.ProducedFiles {
				fmt.Printf("  produced: %s\n", f)
			}
		}
		if len(a.CompletedQuests) > 0 {
			fmt.Println("history:")
			for _, q := range a.CompletedQuests {
				fmt.Printf("  [%s] %s\n", q.Status, q.Description)
			}
		}
		return nil
	},
}

func init() {
	questCmd.AddCommand(questStartCmd, questCompleteCmd, questApproveCmd, questRejectCmd, questShowCmd)
}
