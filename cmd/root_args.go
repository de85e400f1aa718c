package cmd

import (
	"time"

	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'action', 'service' and 'lambda'",
		Short:       helpers.NonZero("m"),
	},
	&config.Sync.Variant: {
		Name:        "variant",
		Description: "The endpoint layout. Supported values are 'bridge', 'echo' and 'chimera'",
		Env:         helpers.NonZero("BRIDGE_SYNC_VARIANT"),
	},
	&config.Sync.TargetURL: {
		Name:        "bridge-url",
		Description: "The URL of the endpoint to synchronise",
		Short:       helpers.NonZero("u"),
		Env:         helpers.NonZero("BRIDGE_URL"),
	},
	&config.Sync.BackendURL: {
		Name:        "api-url",
		Description: "The backend API the workflows are reported to",
		Env:         helpers.NonZero("NOVU_API_URL"),
	},
	&config.Sync.Overrides.SyncPath: {
		Name:        "sync-path",
		Description: "Override the sync path of the selected variant",
	},
	&config.Sync.Overrides.URLField: {
		Name:        "sync-url-field",
		Description: "Override the sync body field carrying the endpoint URL",
	},
	&config.Sync.Overrides.Source: {
		Name:        "sync-source",
		Description: "Override the source query parameter of the sync call",
	},
	&config.Sync.Overrides.Discovery: {
		Name:        "discovery",
		Description: "Override the discovery call of the selected variant. Supported values are 'none', 'query' and 'path'",
	},
	&config.Sync.Overrides.SignatureHeader: {
		Name:        "signature-header",
		Description: "Override the header carrying the discovery signature",
	},
	&config.Credentials.Mode: {
		Name:        "credentials-mode",
		Description: "API key provider. Supported values are 'input', 'ssm' and 'secretsmanager'",
		Short:       helpers.NonZero("A"),
	},
	&config.Credentials.APIKey: {
		Name:        "api-key",
		Description: "The API key used in 'input' credentials mode",
		Env:         helpers.NonZero("NOVU_API_KEY"),
		Hidden:      true,
	},
	&config.Credentials.SSMKey: {
		Name:        "api-key-ssm-arn",
		Description: "The SSM parameter holding the API key in 'ssm' credentials mode",
	},
	&config.Credentials.SecretID: {
		Name:        "api-key-secret-id",
		Description: "The Secrets Manager secret holding the API key in 'secretsmanager' credentials mode",
	},
	&config.Credentials.SecretField: {
		Name:        "api-key-secret-field",
		Description: "The field of a JSON secret holding the API key. If not specified, the whole secret is used",
	},
	&config.Report.S3.BucketName: {
		Name:        "report-s3-upload-bucket",
		Description: "The S3 bucket to use when uploading sync reports",
		Env:         helpers.NonZero("SYNC_REPORT_S3_BUCKET"),
	},
	&config.Report.S3.Prefix: {
		Name:        "report-s3-upload-prefix",
		Description: "The key prefix to use when uploading sync reports",
	},
	&config.Feedback.Token: {
		Name:        "github-token",
		Description: "The token used to send feedback to GitHub",
		Env:         helpers.NonZero("GITHUB_TOKEN"),
		Hidden:      true,
	},
	&config.Feedback.Repository: {
		Name:        "github-repository",
		Description: "The owner/name of the repository feedback is sent to",
		Env:         helpers.NonZero("GITHUB_REPOSITORY"),
	},
	&config.Feedback.SHA: {
		Name:        "github-sha",
		Description: "The commit feedback is attached to",
		Env:         helpers.NonZero("GITHUB_SHA"),
	},
	&config.Feedback.APIURL: {
		Name:        "github-api-url",
		Description: "The GitHub API base URL",
		Env:         helpers.NonZero("GITHUB_API_URL"),
	},
	&config.Feedback.CommitStatus.Context: {
		Name:        "feedback-commit-status-context",
		Description: "The context key to use when pushing the commit status to the repository. Supported placeholders: {variant}",
	},
	&config.Feedback.CommitStatus.TargetURL: {
		Name:        "feedback-commit-status-target-url",
		Description: "The target URL attached to the commit status",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.NonZero("V"),
	},
	&config.Report.S3.Enabled: {
		Name:        "report-s3-upload",
		Description: "Enable S3 upload of sync reports",
		Env:         helpers.NonZero("SYNC_REPORT_S3_UPLOAD"),
	},
	&config.Feedback.CommitStatus.Enabled: {
		Name:        "feedback-commit-status",
		Description: "Enable commit status feedback",
	},
	&config.Feedback.FetchRateLimits: {
		Name:        "fetch-rate-limits",
		Description: "Log the GitHub API rate limits at most once a minute",
	},
	&config.Service.AllowTargetOverride: {
		Name:        "allow-target-override",
		Description: "Let unsigned triggers override the target URL. Signed triggers and scheduled events always can",
	},
	&config.Metrics.Enabled: {
		Name:        "metrics",
		Description: "Expose Prometheus metrics in service mode",
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.NonZero("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Sync.Timeout: {
		Name:        "timeout",
		Description: "The timeout of each discovery and sync call",
		Short:       helpers.NonZero("t"),
	},
}
