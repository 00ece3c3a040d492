package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <group|dm> <id>",
		Short: "Print a conversation's message history",
		Long: "Print a conversation's message history. Opening a direct thread marks\n" +
			"received messages as read, the same as viewing it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseConversation(args[0], args[1])
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.openView(ctx, key)
			if err != nil {
				return err
			}
			defer view.Close()

			if clearErr := view.ClearError(); clearErr != nil {
				fmt.Println(styleMeta.Render("warning: unread state not confirmed by server"))
			}

			if name := view.Name(); name != "" {
				fmt.Println(styleName.Render(name))
			}
			for _, m := range view.Messages() {
				fmt.Println(renderMessage(m, a.identity.UserID))
			}
			return nil
		},
	}
}
