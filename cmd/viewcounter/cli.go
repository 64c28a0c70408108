package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"view-counter/viewcount/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cliOptions struct {
	configPath string
}

func newRootCmd(ctx context.Context) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "viewcounter",
		Short:         "Per-post view counter with a most-read ranking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.SetContext(ctx)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (environment variables override it)")

	root.AddCommand(
		newServeCmd(opts),
		newGenerateSecretCmd(),
		newViewsCmd(opts),
		newSeedCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *cliOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	defer func() { _ = log.Sync() }()

	return serve(ctx, cfg, log)
}

func newGenerateSecretCmd() *cobra.Command {
	var byteLength int
	cmd := &cobra.Command{
		Use:   "generate-secret",
		Short: "Print a random hex secret for IDENTITY_SECRET or NONCE_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSecret(cmd.OutOrStdout(), byteLength)
		},
	}
	cmd.Flags().IntVar(&byteLength, "bytes", secretByteLength, "number of random bytes")
	return cmd
}

func writeSecret(w io.Writer, byteLength int) error {
	if byteLength < 16 {
		return fmt.Errorf("--bytes must be at least 16, got %d", byteLength)
	}
	secret, err := generateRandomHex(byteLength)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, secret)
	return err
}

func newViewsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "views <post-id>",
		Short: "Print the stored view count of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			if cfg.SeedFile != "" {
				if _, err := seedFromFile(ctx, st, cfg.SeedFile); err != nil {
					return err
				}
			}

			n, err := st.views.Get(ctx, domain.ItemID(id))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}

func newSeedCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load items and initial counts from a YAML file into Redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.Store != storeRedis {
				return errors.New("seed needs STORE=redis; the memory store is loaded with SEED_FILE at start-up")
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			n, err := seedFromFile(ctx, st, args[0])
			if err != nil {
				return err
			}
			log.Info("seeded items", zap.Int("items", n), zap.String("file", args[0]))
			return nil
		},
	}
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	var postID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print cumulative tracking outcomes recorded in Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.StatsBackend != storeRedis {
				return errors.New("stats needs STATS_BACKEND=redis")
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			reader, ok := st.stats.(domain.ItemStatsReader)
			if !ok {
				return errors.New("stats backend is not readable")
			}
			var totals map[string]int64
			if postID > 0 {
				totals, err = reader.ItemTotals(ctx, domain.ItemID(postID))
			} else {
				totals, err = reader.Totals(ctx)
			}
			if err != nil {
				return err
			}
			return writeTotals(cmd.OutOrStdout(), totals)
		},
	}
	cmd.Flags().Int64Var(&postID, "post-id", 0, "print the counters of one post (needs STATS_TRACK_ITEMS)")
	return cmd
}

func writeTotals(w io.Writer, totals map[string]int64) error {
	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		if _, err := fmt.Fprintf(w, "%-24s %d\n", label, totals[label]); err != nil {
			return err
		}
	}
	return nil
}
