package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "edit <group|dm> <id> <message-id> -m <text>",
		Short: "Edit one of your messages",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseConversation(args[0], args[1])
			if err != nil {
				return err
			}
			messageID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q", args[2])
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

			if _, err := view.Edit(ctx, messageID, message); err != nil {
				return err
			}
			fmt.Printf("edited #%d\n", messageID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "new message text")
	cmd.MarkFlagRequired("message")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <group|dm> <id> <message-id>",
		Short: "Delete one of your messages",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseConversation(args[0], args[1])
			if err != nil {
				return err
			}
			messageID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q", args[2])
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

			if err := view.Delete(ctx, messageID); err != nil {
				return err
			}
			fmt.Printf("deleted #%d\n", messageID)
			return nil
		},
	}
}
