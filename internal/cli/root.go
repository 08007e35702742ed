package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andywolf/speclinear/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "speclinear",
	Short: "speclinear - read and write Linear issues and projects from the terminal",
	Long: `speclinear is a typed client for the Linear GraphQL API.

It creates and updates issues, projects, milestones, comments and relations,
and searches or reads them, without writing GraphQL by hand.

The API key is taken from --token, SPECLINEAR_LINEAR_TOKEN, a GCP Secret
Manager secret named by --token-secret, or LINEAR_TOKEN, in that order.

Example:
  speclinear issue show TIM-123
  speclinear blockers check TIM-123`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError asks the process to exit with Code. A nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .speclinear.yaml)")
	flags.String("token", "", "Linear API key")
	flags.String("token-secret", "", "GCP Secret Manager secret holding the Linear API key")
	flags.String("team-config", "", "team config file mapping label, state and status names to ids")
	flags.String("team", "", "default team id")
	flags.String("endpoint", "", "GraphQL endpoint (default https://api.linear.app/graphql)")
	flags.String("timeout", "", "request timeout (default 30s)")
	flags.String("format", "", "output format: rich, plain or json (default rich)")
	flags.Bool("verbose", false, "log each API request to stderr")

	bindings := map[string]string{
		"linear.token":        "token",
		"linear.token_secret": "token-secret",
		"linear.team_config":  "team-config",
		"linear.team_id":      "team",
		"linear.endpoint":     "endpoint",
		"linear.timeout":      "timeout",
		"output.format":       "format",
		"verbose":             "verbose",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".speclinear")
	}

	viper.SetEnvPrefix("SPECLINEAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and environment still apply.
	_ = viper.ReadInConfig()
}
