package cmd

import (
	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
)

// Action inputs, as declared in action.yml.
const (
	inputAPIKey    = "novu-api-key"
	inputBridgeURL = "bridge-url"
	inputAPIURL    = "api-url"
	inputVariant   = "variant"
)

func cmdAction() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "action",
		Aliases: []string{"a", "gha"},
		Short:   "Run a single synchronisation as a GitHub Actions step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Global.Mode = config.ModeAction
			action := githubactions.New()
			applyActionInputs(action)

			rt, err := setup(cmd.Context(), metrics.NewNoopSink())
			if err != nil {
				failAction(action, err)
				return errors.Wrap(err, "failed to setup action")
			}
			logger.Info("synchronising...")
			return rt.RunAction(cmd.Context(), action)
		},
	}

	return cmd
}

// failAction reports a failure that happened before any synchronisation, so later steps still see both outputs.
func failAction(action *githubactions.Action, err error) {
	action.SetOutput("result", "{}")
	action.SetOutput("success", "false")
	action.Errorf("%s", err)
}

// applyActionInputs overlays the non-empty step inputs on the configuration and masks the API key.
func applyActionInputs(action *githubactions.Action) {
	if v := action.GetInput(inputAPIKey); v != "" {
		config.Credentials.APIKey = v
	}
	if config.Credentials.APIKey != "" {
		action.AddMask(config.Credentials.APIKey)
	}
	if v := action.GetInput(inputBridgeURL); v != "" {
		config.Sync.TargetURL = v
	}
	if v := action.GetInput(inputAPIURL); v != "" {
		config.Sync.BackendURL = v
	}
	if v := action.GetInput(inputVariant); v != "" {
		config.Sync.Variant = v
	}
}
