package cmd

import (
	"strings"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:          "barctl",
		Short:        "Manages Teradata DSA backup targets and media servers",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zap.ReplaceGlobals(log.NewLogger(
				logLevelFlag(v),
				logFormatFlag(v),
			))
		},
	}

	flags := cmd.PersistentFlags()
	addLogLevelFlag(flags, v)
	addLogFormatFlag(flags, v)
	addDSAHostFlag(flags, v)
	addDSAPortFlag(flags, v)
	addDSAProtocolFlag(flags, v)
	addDSAVerifySSLFlag(flags, v)
	addDSAUsernameFlag(flags, v)
	addDSAPasswordFlag(flags, v)
	addDSATimeoutFlag(flags, v)
	addDSARetriesFlag(flags, v)
	addSnapshotEnabledFlag(flags, v)
	addSnapshotStorageTypeFlag(flags, v)
	addSnapshotDirFlag(flags, v)
	addSnapshotBlobBucketFlag(flags, v)
	addSnapshotBlobPrefixFlag(flags, v)
	addSnapshotLimitFlag(flags, v)

	cmd.AddCommand(NewDiskCommand(v))
	cmd.AddCommand(NewS3Command(v))
	cmd.AddCommand(NewMediaServerCommand(v))
	cmd.AddCommand(NewSnapshotCommand(v))
	cmd.AddCommand(NewHTTPCommand(v))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to run command", zap.Error(err))
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}
