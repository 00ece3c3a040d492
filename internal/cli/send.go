package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "send <group|dm> <id> -m <text>",
		Short: "Send a message to a group or a direct partner",
		Args:  cobra.ExactArgs(2),
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

			msg, err := view.Send(ctx, message)
			if err != nil {
				return err
			}
			fmt.Printf("sent #%d\n", msg.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "message text")
	cmd.MarkFlagRequired("message")
	return cmd
}
