package cmd

import (
	"fmt"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/pkg/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var snapshotCollections = []string{bar.ResourceDiskFileSystem, bar.ResourceAWSS3}

func NewSnapshotCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect collections stored before each write",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:       "list <collection>",
			Short:     "List snapshot keys, newest first",
			Args:      cobra.ExactArgs(1),
			ValidArgs: snapshotCollections,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withHistory(cmd, v, func(h *snapshot.History) error {
					keys, err := h.List(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					for _, key := range keys {
						if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
							return err
						}
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:       "show <collection> [key]",
			Short:     "Print a snapshot, the newest one by default",
			Args:      cobra.RangeArgs(1, 2),
			ValidArgs: snapshotCollections,
			RunE: func(cmd *cobra.Command, args []string) error {
				var key string
				if len(args) > 1 {
					key = args[1]
				}
				return withHistory(cmd, v, func(h *snapshot.History) error {
					data, err := h.Get(cmd.Context(), args[0], key)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				})
			},
		},
	)

	return cmd
}

func withHistory(cmd *cobra.Command, v *viper.Viper, fn func(h *snapshot.History) error) error {
	l := zap.L()
	history, err := newHistory(cmd.Context(), v, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := history.Close(); err != nil {
			l.Warn("failed to close snapshot history", zap.Error(err))
		}
	}()
	return fn(history)
}
