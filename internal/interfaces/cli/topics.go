package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-screening/internal/infrastructure/messaging/kafka"
)

func newTopicsCmd(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage the job and result Kafka topics",
	}

	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create the job and result topics when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, ctx, cancel, err := requireCLIContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			if deps.Topics == nil || !cc.Config.Kafka.Enabled {
				return fmt.Errorf("kafka is not enabled in the configuration")
			}

			tm, err := deps.Topics(ctx, cc)
			if err != nil {
				return err
			}
			defer tm.Close()

			topics := kafka.ScreeningTopics(cc.Config.Kafka)
			if err := tm.EnsureTopics(ctx, topics); err != nil {
				return err
			}
			for _, t := range topics {
				PrintSuccess(cmd, "topic "+t.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(ensure)
	return cmd
}
