package cmd

import (
	"context"
	"fmt"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/responses"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// runTool executes a single tool operation and prints its text.
// Any outcome but success fails the command.
func runTool(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, s *bar.Service) *responses.Result) error {
	l := zap.L()
	t, err := newTooling(cmd.Context(), v, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			l.Warn("failed to close snapshot history", zap.Error(err))
		}
	}()

	res := fn(cmd.Context(), t.service)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.Text); err != nil {
		return err
	}
	if !res.Succeeded() {
		return errors.Errorf("%s %s: %s", res.Metadata.ToolName, res.Metadata.Operation, res.Outcome)
	}
	return nil
}

func operationCompletion(operations []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return operations, cobra.ShellCompDirectiveNoFileComp
		}
		return cobra.AppendActiveHelp(nil, "This command does not take any more arguments"), cobra.ShellCompDirectiveNoFileComp
	}
}
