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

func NewMediaServerCommand(v *viper.Viper) *cobra.Command {
	var (
		req             requests.MediaServer
		ipAddresses     string
		poolSharedPipes int
	)
	cmd := &cobra.Command{
		Use:               "mediaserver <" + strings.Join(bar.MediaServerOperations, "|") + ">",
		Aliases:           []string{"media-server"},
		Short:             "Manage DSA media servers",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: operationCompletion(bar.MediaServerOperations),
		RunE: func(cmd *cobra.Command, args []string) error {
			ips, err := requests.ParseIPAddresses(ipAddresses)
			if err != nil {
				return err
			}
			req.Operation = args[0]
			req.IPAddresses = ips
			if cmd.Flags().Changed("pool-shared-pipes") {
				req.PoolSharedPipes = &poolSharedPipes
			}
			return runTool(cmd, v, func(ctx context.Context, s *bar.Service) *responses.Result {
				return s.ManageMediaServer(ctx, &req)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.ServerName, "name", "", "Media server name")
	flags.IntVar(&req.Port, "port", 0, "Media server port")
	flags.StringVar(&ipAddresses, "ip-addresses", "", `IP addresses as JSON, e.g. [{"ipAddress":"10.0.0.1","netmask":"255.0.0.0"}]`)
	flags.IntVar(&poolSharedPipes, "pool-shared-pipes", bar.DefaultPoolSharedPipes, "Number of shared pipes in the pool (1-99)")
	flags.BoolVar(&req.Virtual, "virtual", false, "Delete the virtual media server registration")

	return cmd
}
