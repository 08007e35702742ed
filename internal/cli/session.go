package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andywolf/speclinear/internal/cloud/gcp"
	"github.com/andywolf/speclinear/internal/config"
	"github.com/andywolf/speclinear/internal/linear"
	"github.com/andywolf/speclinear/internal/security"
	"github.com/andywolf/speclinear/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session bundles what a command needs to talk to Linear and print results.
type session struct {
	cfg       *config.Config
	client    *linear.Client
	queries   *linear.Queries
	mutations *linear.Mutations
	logger    *gcp.CloudLogger
	out       *printer
}

// newSecretFetcher is replaced in tests.
var newSecretFetcher = func(ctx context.Context) (gcp.SecretFetcher, error) {
	return gcp.NewSecretManagerClient(ctx)
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s, err := newSession(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if f := viper.ConfigFileUsed(); f != "" {
		s.logger.Infof("using config file %s", f)
	}
	return s, nil
}

func newSession(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	token, err := resolveToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	minSeverity := gcp.SeverityWarning
	if cfg.Verbose {
		minSeverity = gcp.SeverityDebug
	}
	secret := token
	if secret == "" {
		secret = os.Getenv(linear.TokenEnvVar)
	}
	logger := gcp.NewCloudLogger(
		gcp.WithWriter(stderr),
		gcp.WithMinSeverity(minSeverity),
		gcp.WithSecret(secret),
		gcp.WithLabels(version.Fields()),
	)

	opts := []linear.Option{
		linear.WithTimeout(timeout),
		linear.WithLogger(logger),
	}
	if token != "" {
		opts = append(opts, linear.WithToken(token))
	}
	if cfg.Linear.Endpoint != "" {
		opts = append(opts, linear.WithEndpoint(cfg.Linear.Endpoint))
	}
	if cfg.Linear.TeamConfig != "" {
		opts = append(opts, linear.WithConfigPath(cfg.Linear.TeamConfig))
	}
	if cfg.Linear.RateLimit > 0 {
		opts = append(opts, linear.WithRateLimiter(security.NewRateLimiter(cfg.Linear.RateLimit, time.Hour)))
	}

	client, err := linear.New(opts...)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &session{
		cfg:       cfg,
		client:    client,
		queries:   linear.NewQueries(client),
		mutations: linear.NewMutations(client),
		logger:    logger,
		out:       newPrinter(stdout, cfg.Output.Format, cfg.Output.Width),
	}, nil
}

// resolveToken returns the explicit token, or the one stored in Secret
// Manager, or "" to let the client fall back to LINEAR_TOKEN.
func resolveToken(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Linear.Token != "" {
		return cfg.Linear.Token, nil
	}
	if cfg.Linear.TokenSecret == "" {
		return "", nil
	}

	fetcher, err := newSecretFetcher(ctx)
	if err != nil {
		return "", err
	}
	defer fetcher.Close()

	token, err := gcp.FetchToken(ctx, fetcher, cfg.Linear.TokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to read token secret: %w", err)
	}
	return token, nil
}

func (s *session) Close() error {
	err := s.client.Close()
	_ = s.logger.Flush()
	_ = s.logger.Close()
	return err
}

// teamID returns explicit, else the configured default team, else the team
// config's team.
func (s *session) teamID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if s.cfg.Linear.TeamID != "" {
		return s.cfg.Linear.TeamID, nil
	}
	tc, err := s.client.Config()
	if err != nil {
		return "", err
	}
	if tc != nil && tc.TeamID != "" {
		return tc.TeamID, nil
	}
	return "", fmt.Errorf("no team given: use --team or set teamId in the team config")
}

// resolveIDs maps names through lookup when a team config is loaded; values
// that are not known names are passed through as ids.
func (s *session) resolveIDs(values []string, lookup func(*linear.Config, string) (string, bool)) ([]string, error) {
	tc, err := s.client.Config()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if tc != nil {
			if id, ok := lookup(tc, v); ok {
				ids = append(ids, id)
				continue
			}
			s.logger.Debugf("%q is not named in the team config; sending it as an id", v)
		}
		ids = append(ids, v)
	}
	return ids, nil
}

func (s *session) resolveID(value string, lookup func(*linear.Config, string) (string, bool)) (string, error) {
	if value == "" {
		return "", nil
	}
	ids, err := s.resolveIDs([]string{value}, lookup)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}
