package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iougemini/kmscheck/internal/config"
	"github.com/iougemini/kmscheck/internal/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe candidates and print reachability without publishing",
	Long: `Run the discovery pipeline up to selection and print a reachability
table. No DNS credentials are needed and nothing is published.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(cfg)
	out, err := p.Run(ctx)
	if err != nil && !errors.Is(err, pipeline.ErrNoReachable) {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tREACHABLE\tERROR\tELAPSED")
	for _, r := range out.Results {
		errKind := ""
		if !r.Reachable {
			errKind = r.Kind.String()
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", r.Endpoint, r.Reachable, errKind, r.Elapsed.Round(time.Millisecond))
	}
	w.Flush()

	if errors.Is(err, pipeline.ErrNoReachable) {
		fmt.Fprintln(cmd.OutOrStdout(), "no reachable endpoint")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "selected: %s\n", out.Selected)
	return nil
}
