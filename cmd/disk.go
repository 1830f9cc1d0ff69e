package cmd

import (
	"context"
	"strings"

	"github.com/foomo/barctl/pkg/bar"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewDiskCommand(v *viper.Viper) *cobra.Command {
	var (
		path     string
		maxFiles int
	)
	cmd := &cobra.Command{
		Use:               "disk <" + strings.Join(bar.DiskFileSystemOperations, "|") + ">",
		Short:             "Manage DSA disk file systems",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: operationCompletion(bar.DiskFileSystemOperations),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &requests.DiskFileSystem{
				Operation:      args[0],
				FileSystemPath: path,
			}
			if cmd.Flags().Changed("max-files") {
				req.MaxFiles = &maxFiles
			}
			return runTool(cmd, v, func(ctx context.Context, s *bar.Service) *responses.Result {
				return s.ManageDiskFileSystem(ctx, req)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&path, "path", "", "File system path, e.g. /var/opt/teradata/backup")
	flags.IntVar(&maxFiles, "max-files", 0, "Maximum number of files allowed on the file system")

	return cmd
}
