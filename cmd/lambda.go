package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Global.Mode = config.ModeLambda
			rt, err := setup(cmd.Context(), metrics.NewNoopSink(), runtime.WithPayloadType(config.Lambda.PayloadType))
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}

			logger.Info("lambda starting...", "payloadType", config.Lambda.PayloadType)
			if config.Lambda.PayloadType == config.PayloadEventBridge {
				lambda.StartWithOptions(rt.HandleScheduledEvent, lambda.WithContext(cmd.Context()))
				return nil
			}
			lambda.StartWithOptions(rt.HandleEvent, lambda.WithContext(cmd.Context()))
			return nil
		},
	}

	bindEnvMap(cmd, lambdaEnvMapString)

	return cmd
}
