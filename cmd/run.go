package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iougemini/kmscheck/internal/config"
	"github.com/iougemini/kmscheck/internal/pipeline"
	"github.com/iougemini/kmscheck/internal/probe"
	"github.com/iougemini/kmscheck/internal/publish"
	"github.com/iougemini/kmscheck/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover, probe, and publish a reachable KMS endpoint",
	Long: `Fetch the candidate source text, extract host:port candidates, probe
them for TCP reachability, and upsert the first reachable endpoint into the
configured DNS record. With --interval the cycle repeats until interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("interval", 0, "re-run periodically at this interval (0 = run once)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	publisher, err := publish.NewCloudflare(cfg.Cloudflare.APIToken, cfg.Cloudflare.ZoneID)
	if err != nil {
		return err
	}
	p := newPipeline(cfg)
	p.Publisher = publisher

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		_, err := p.Run(ctx)
		return err
	}

	log.Info().Dur("interval", interval).Msg("Running periodically")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.Run(ctx); err != nil {
			// Periodic mode keeps going; the next cycle may succeed.
			log.Error().Err(err).Msg("Run failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// newPipeline wires the common stages; callers attach a publisher when the
// run should actually touch DNS.
func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	prober := probe.New()
	prober.Timeout = cfg.Probe.Timeout
	prober.Concurrency = cfg.Probe.Concurrency

	return &pipeline.Pipeline{
		Fetcher:    source.NewGitHub(cfg.Source.URL, cfg.Source.Token, cfg.Source.Timeout),
		Prober:     prober,
		RecordName: cfg.Record.Name,
		TTL:        cfg.Record.TTL,
	}
}
