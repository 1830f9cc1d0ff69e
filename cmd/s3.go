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

func NewS3Command(v *viper.Viper) *cobra.Command {
	var (
		req             requests.AWSS3
		bucketsByRegion string
	)
	cmd := &cobra.Command{
		Use:               "s3 <" + strings.Join(bar.AWSS3Operations, "|") + ">",
		Short:             "Manage the AWS S3 backup target",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: operationCompletion(bar.AWSS3Operations),
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := requests.ParseBucketsByRegion(bucketsByRegion)
			if err != nil {
				return err
			}
			req.Operation = args[0]
			req.BucketsByRegion = regions
			return runTool(cmd, v, func(ctx context.Context, s *bar.Service) *responses.Result {
				return s.ManageAWSS3(ctx, &req)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.AccessID, "access-id", "", "AWS access key id")
	flags.StringVar(&req.AccessKey, "access-key", "", "AWS secret access key")
	flags.StringVar(&req.AcctName, "acct-name", "", "DSA account name of the target")
	flags.StringVar(&req.BucketName, "bucket-name", "", "Default bucket name")
	flags.StringVar(&bucketsByRegion, "buckets-by-region", "", `Regions as JSON, e.g. [{"region":"us-east-1","buckets":[{"bucketName":"b1"}]}]`)
	flags.BoolVar(&req.Verify, "verify", false, "Check that every bucket is reachable before writing")

	return cmd
}
