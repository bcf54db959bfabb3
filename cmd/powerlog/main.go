//go:build linux

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/host/v3"

	"github.com/ja7ad/powerlog/pkg/report"
	"github.com/ja7ad/powerlog/pkg/sampler"
	"github.com/ja7ad/powerlog/pkg/system/pmic"
	"github.com/ja7ad/powerlog/pkg/system/rapl"
	"github.com/ja7ad/powerlog/pkg/system/util"
)

type opts struct {
	interval int
	bus      int
	output   string
}

type runFunc func(ctx context.Context, o opts, stderr io.Writer) error

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr, run))
}

// execute runs the root command and maps its outcome to an exit code.
func execute(ctx context.Context, args []string, stderr io.Writer, fn runFunc) int {
	root := newRootCmd(fn, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		return 1
	}
	return 0
}

func newRootCmd(fn runFunc, stderr io.Writer) *cobra.Command {
	var o opts

	root := &cobra.Command{
		Use:   "powerlog [-i interval] [-b i2c_bus_id] [-o outfile]",
		Short: "CPU power and battery voltage logger",
		Long: `The powerlog tool samples the Intel RAPL energy counters of the CPU package
and its cores, converts them to watts, and reads the battery voltage from the
BD2613GW PMIC ADC over I2C.

One line per interval is printed to stderr. With -o, a ';'-delimited copy
(date;time;timestamp;ujoules;watt_pkg;watt_core;voltage) is written to outfile.

Examples:
  powerlog -i 2 -b 1
  powerlog -o /var/log/power.csv`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// flags parsed fine; from here on failures are not usage errors
			cmd.SilenceUsage = true
			return fn(cmd.Context(), o, stderr)
		},
	}
	root.SetOut(stderr)
	root.SetErr(stderr)

	root.Flags().IntVarP(&o.interval, "interval", "i", 1, "sampling interval in seconds")
	root.Flags().IntVarP(&o.bus, "bus", "b", 1, "i2c bus id of the PMIC")
	root.Flags().StringVarP(&o.output, "output", "o", "", "write per-interval rows to outfile (default: none)")

	return root
}

func run(ctx context.Context, o opts, stderr io.Writer) error {
	if o.interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}

	w, err := report.Open(stderr, o.output)
	if err != nil {
		errno, code := util.Errno(err)
		slog.Error("can't open outfile", "path", o.output, "err", err, "errno", errno, "code", code)
		return fmt.Errorf("outfile: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Error("close outfile", "err", err)
		}
	}()

	// Registers the sysfs I2C buses with i2creg; a missing bus only
	// degrades the voltage to 0.
	if _, err := host.Init(); err != nil {
		slog.Warn("periph host init", "err", err)
	}

	cfg := sampler.Config{
		Interval: time.Duration(o.interval) * time.Second,
		Bus:      o.bus,
		Domains:  [2]rapl.Domain{rapl.Package, rapl.Core},
	}
	smp := sampler.New(&cfg, &rapl.Reader{}, &pmic.Reader{}, w)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("sampling", "interval", cfg.Interval, "bus", pmic.BusName(cfg.Bus), "outfile", w.Path())
	if err := smp.Run(ctx); err != nil {
		return err
	}
	slog.Info("interrupted", "samples", smp.Count(), "energy(pkg)", smp.Consumed().Humanized())
	return nil
}
