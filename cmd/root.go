// Package cmd provides the entrypoint for the bridge-sync cli.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/isometry/bridge-sync/internal/config"
	internalAWS "github.com/isometry/bridge-sync/internal/controllers/aws"
	internalGitHub "github.com/isometry/bridge-sync/internal/controllers/github"
	"github.com/isometry/bridge-sync/internal/handler"
	"github.com/isometry/bridge-sync/internal/handler/processor"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/runtime"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configFileEnv overrides the default configuration file path.
const configFileEnv = "BRIDGE_SYNC_CONFIG"

var (
	configFilePath string
	logger         *slog.Logger
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for bridge-sync.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bridge-sync",
		Short:         "Synchronise the workflows of a bridge endpoint with the backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			logger = helpers.NewLogger(os.Stdout, config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch config.Global.Mode {
			case config.ModeAction:
				return cmdAction().RunE(cmd, args)
			case config.ModeService:
				return cmdService().RunE(cmd, args)
			case config.ModeLambda:
				return cmdLambda().RunE(cmd, args)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
	}

	// Root command flags
	configFilePath = helpers.FirstNonEmpty(os.Getenv(configFileEnv), "config.yaml")
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", configFilePath, fmt.Sprintf("[%s] path to the configuration file", configFileEnv))

	// Configuration loading & defaults
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdAction(),
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapDuration)
}

// setup validates the configuration and builds the runtime shared by every mode.
func setup(ctx context.Context, sink metrics.Sink, opts ...runtime.Option) (*runtime.Runtime, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With("mode", config.Global.Mode)

	endpoint, err := config.SyncEndpoint()
	if err != nil {
		return nil, err
	}
	logger.Debug("creating synchronisation client...", slog.String("variant", config.Sync.Variant), slog.Any("endpoint", endpoint))
	client, err := syncer.New(
		syncer.WithEndpoint(endpoint),
		syncer.WithTimeout(config.Sync.Timeout),
		syncer.WithLogger(logger.With("component", "syncer")))
	if err != nil {
		return nil, err
	}

	hdlOpts := []handler.Option{
		handler.WithLogger(logger.With("component", "handler")),
		handler.WithMetrics(sink),
		handler.WithSyncer(client, config.Sync.Variant),
		handler.WithDefaults(syncer.Request{
			TargetURL:  config.Sync.TargetURL,
			APIKey:     config.Credentials.APIKey,
			BackendURL: config.Sync.BackendURL,
		}),
	}
	if config.Global.Mode != config.ModeAction {
		hdlOpts = append(hdlOpts,
			handler.WithInboundSecret(config.Service.Secret, config.Service.SignatureTolerance),
			handler.WithTargetOverride(config.Service.AllowTargetOverride))
	}

	var store handler.SecretStore
	if config.Credentials.Mode != config.CredentialsInput || config.Report.S3.Enabled {
		logger.Debug("creating AWS controller...")
		awsController, err := internalAWS.NewController(ctx, internalAWS.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		store = awsController
		if config.Report.S3.Enabled {
			hdlOpts = append(hdlOpts, handler.WithReport(awsController, config.Report.S3.BucketName, config.Report.S3.Prefix))
		}
	}

	credentials, err := handler.NewCredentialProvider(handler.CredentialSettings{
		Mode:        config.Credentials.Mode,
		APIKey:      config.Credentials.APIKey,
		SSMKey:      config.Credentials.SSMKey,
		SecretID:    config.Credentials.SecretID,
		SecretField: config.Credentials.SecretField,
	}, store)
	if err != nil {
		return nil, err
	}
	hdlOpts = append(hdlOpts, handler.WithCredentials(credentials))

	if config.Feedback.Token != "" && (config.Feedback.CommitStatus.Enabled || config.Feedback.FetchRateLimits) {
		logger.Debug("creating GitHub controller...")
		githubController, err := internalGitHub.NewController(ctx,
			internalGitHub.WithToken(config.Feedback.Token),
			internalGitHub.WithBaseURL(config.Feedback.APIURL),
			internalGitHub.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if config.Feedback.CommitStatus.Enabled {
			hdlOpts = append(hdlOpts, handler.WithCommitStatus(githubController, processor.CommitStatusTarget{
				Repository: config.Feedback.Repository,
				SHA:        config.Feedback.SHA,
				Context:    config.Feedback.CommitStatus.Context,
				TargetURL:  config.Feedback.CommitStatus.TargetURL,
			}))
		}
		if config.Feedback.FetchRateLimits {
			hdlOpts = append(hdlOpts, handler.WithRateLimits(githubController))
		}
	}

	logger.Debug("creating handler...")
	hdl, err := handler.NewHandler(hdlOpts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl, append([]runtime.Option{runtime.WithLogger(logger.With("component", "runtime"))}, opts...)...), nil
}
