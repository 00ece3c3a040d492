package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedran77/parley/internal/domain"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow incoming activity across all conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var mu sync.Mutex
			names := make(map[domain.Key]string)
			a.list.SetNotifyListener(func(key domain.Key) {
				mu.Lock()
				name := names[key]
				mu.Unlock()
				if name == "" {
					name = key.String()
				}
				fmt.Println(renderEvent(time.Now(), fmt.Sprintf("new activity in %s", styleName.Render(name))))
			})

			if err := a.list.Bootstrap(ctx); err != nil {
				return err
			}
			mu.Lock()
			for _, c := range a.list.Conversations() {
				names[c.Key] = c.Name
			}
			total := len(names)
			mu.Unlock()

			fmt.Println(renderEvent(time.Now(), fmt.Sprintf("watching %d conversations, ctrl-c to stop", total)))
			<-ctx.Done()
			return nil
		},
	}
}
