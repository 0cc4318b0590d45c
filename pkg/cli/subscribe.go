package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var subscribeVariables string

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <document>",
	Short: "Start a subscription and stream its events to stdout",
	Long: `Start a GraphQL subscription over WebSocket and print each event as
one JSON line. The stream runs until the server completes it, an error ends
it, or the command is interrupted. Interrupting sends a stop frame before
closing the connection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVariables(subscribeVariables)
		if err != nil {
			return err
		}
		c, err := buildClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sess, events, err := c.Subscribe(ctx, args[0], vars)
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		for {
			select {
			case <-ctx.Done():
				return nil
			case payload, ok := <-events:
				if !ok {
					if err := sess.Err(); err != nil {
						return err
					}
					fmt.Fprintln(os.Stderr, "stream complete")
					return nil
				}
				fmt.Println(string(payload))
			}
		}
	},
}

func init() {
	subscribeCmd.Flags().StringVarP(&subscribeVariables, "variables", "v", "", "Operation variables as a JSON object")
	rootCmd.AddCommand(subscribeCmd)
}
