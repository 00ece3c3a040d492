package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List conversations with unread markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.list.Bootstrap(ctx); err != nil {
				return err
			}

			conversations := a.list.Conversations()
			if len(conversations) == 0 {
				fmt.Println("no conversations yet")
				return nil
			}
			for _, c := range conversations {
				fmt.Println(renderConversation(c, a.list.Unread(c.Key)))
			}
			return nil
		},
	}
}
