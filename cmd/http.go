package cmd

import (
	"context"
	"net/http"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/handler"
	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewHTTPCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start the tool http server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			t, err := newTooling(cmd.Context(), v, l)
			if err != nil {
				return errors.Wrap(err, "failed to create tool service")
			}

			// the dsa answers with an envelope even when it rejects, so only transport errors count
			dsaReachableFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				_, err := t.client.Do(ctx, &dsa.Request{
					Method:   http.MethodGet,
					Endpoint: dsa.EndpointMediaServers,
				})
				return err
			})
			svr.AddReadinessHealthzers(dsaReachableFn)

			svr.AddClosers(func(ctx context.Context) error {
				return t.Close()
			})

			svr.AddServices(
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), t.service, handler.WithPath(basePathFlag(v))),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addGzipLevelFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}
