package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/mq"
)

// NewWatchCmd создаёт команду watch: печать уведомлений artifact.ready.
func NewWatchCmd(appFn func() *App, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print artifact.ready notifications as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn()
			ctx := cmd.Context()

			conn, err := app.MQ(ctx)
			if err != nil {
				return err
			}

			consumer := mq.NewConsumer(conn, app.Logger, mq.ConsumerConfig{
				Queue: mq.QueueArtifactsReady,
				Handler: func(_ context.Context, msg *mq.Message) error {
					event, err := mq.DecodeArtifactReady(msg)
					if err != nil {
						// Повторная доставка не поможет.
						app.Logger.Warn("skipping message", "message_id", msg.ID, "error", err)
						return nil
					}
					out.Line(event,
						event.At.Format("2006-01-02T15:04:05Z07:00"),
						event.SpeciesID,
						string(event.Kind),
						strconv.Itoa(event.ChunkSize),
						event.Location,
					)
					return nil
				},
			})

			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
