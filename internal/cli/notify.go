package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <on|off|status>",
		Short: "Control the unread-notification toggle",
		Args:  cobra.ExactArgs(1),
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

			switch args[0] {
			case "status":
			case "on":
				if err := a.list.SetNotificationsEnabled(ctx, true); err != nil {
					return err
				}
			case "off":
				if err := a.list.SetNotificationsEnabled(ctx, false); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown argument %q (want on, off or status)", args[0])
			}

			if a.list.NotificationsEnabled() {
				fmt.Println("notifications: enabled")
			} else {
				fmt.Println("notifications: disabled")
			}
			return nil
		},
	}
}
