//go:build unix

/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	hyperplatform "github.com/blacktop/go-hyperplatform"
	"github.com/blacktop/go-hyperplatform/internal/admin"
	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/perf"
)

var (
	backendFlag string
	listenFlag  string
)

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&backendFlag, "backend", "", "override vm.backend (host, null)")
	loadCmd.Flags().StringVar(&listenFlag, "listen", "", "override metrics.listen")
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the driver and run until signalled",
	Long: `Load the driver and keep it running until SIGINT or SIGTERM.

While loaded:
  SIGHUP   run pending reinitialization callbacks (reopen a deferred log file)
  SIGUSR1  deliver a sleep power transition
  SIGUSR2  deliver a resume power transition`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backendFlag != "" {
		cfg.VM.Backend = backendFlag
	}
	if listenFlag != "" {
		cfg.Metrics.Listen = listenFlag
	}

	exe, _ := os.Executable()
	mod := host.NewModule(filepath.Base(exe), exe)
	sys := host.NewSystem()

	d, ss, err := hyperplatform.NewDefault(cfg, mod, sys)
	if err != nil {
		return err
	}
	logger := ss.Logs.Zerolog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		if errors.Is(err, hyperplatform.ErrCancelled) {
			log.Error().Err(err).Msg("host is not supported")
		}
		return fmt.Errorf("load: %w", err)
	}
	defer d.Stop(context.Background())

	if cfg.Metrics.Listen != "" {
		driverRegistry := prometheus.NewRegistry()
		driverRegistry.MustRegister(d.Collector())
		srv, err := admin.Listen(cfg.Metrics.Listen, admin.Options{
			Status: func() any { return d.Status() },
			Gatherer: func() prometheus.Gatherer {
				if g := perf.Gatherer(); g != nil {
					return prometheus.Gatherers{driverRegistry, g}
				}
				return driverRegistry
			},
			Log: logger.With().Str("component", "admin").Logger(),
		})
		if err != nil {
			return fmt.Errorf("admin listen: %w", err)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("unloading")
			return nil
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				n := sys.Reinitialize()
				logger.Info().Int("callbacks", n).Msg("reinitialization pass")
			case syscall.SIGUSR1:
				sys.Events.Publish(host.EventPower, host.PowerSleep)
			case syscall.SIGUSR2:
				sys.Events.Publish(host.EventPower, host.PowerResume)
			}
		}
	}
}
