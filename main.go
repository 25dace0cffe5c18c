package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gregLibert/jdl-reader/internal/config"
	"github.com/gregLibert/jdl-reader/internal/logger"
	"github.com/gregLibert/jdl-reader/internal/metrics"
	"github.com/gregLibert/jdl-reader/internal/server"
	"github.com/gregLibert/jdl-reader/pkg/jdl"
	"github.com/gregLibert/jdl-reader/pkg/pcsc"
)

// Exit codes.
const (
	exitOK                 = 0
	exitError              = 1
	exitVerificationFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(config.FromEnv()).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, jdl.ErrVerificationFailed):
		return exitVerificationFailed
	default:
		return exitError
	}
}

func newRootCmd(cfg config.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:          "jdl-reader",
		Short:        "Read Japanese driver's licenses over a PC/SC contactless reader",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfg.Name, "reader", cfg.Name, "reader name or substring (default: first reader)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	root.PersistentFlags().DurationVar(&cfg.CardWait, "wait", cfg.CardWait, "how long to wait for a card")

	root.AddCommand(
		newReadCmd(&cfg),
		newServeCmd(&cfg),
		newReadersCmd(),
	)
	return root
}

func newReadCmd(cfg *config.Reader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the card once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			primary, secondary, err := resolvePINs(cfg.PIN1, cfg.PIN2)
			if err != nil {
				return err
			}

			log := logger.New(cfg.LogLevel, cfg.LogFormat)
			t, err := pcsc.Open(cmd.Context(), pcsc.Options{Reader: cfg.Name, Wait: cfg.CardWait})
			if err != nil {
				return err
			}
			log.Debug("card connected", "reader", t.Reader())

			res, err := jdl.NewReader(jdl.WithLogger(log)).Run(cmd.Context(), t, primary, secondary)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, asJSON)
		},
	}

	cmd.Flags().StringVar(&cfg.PIN1, "pin1", cfg.PIN1, "PIN 1, unlocks the license record (env JDL_PIN1)")
	cmd.Flags().StringVar(&cfg.PIN2, "pin2", cfg.PIN2, "PIN 2, also reads the registered domicile (env JDL_PIN2)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of the text report")
	return cmd
}

// resolvePINs validates the configured PINs. An empty PIN2 means it was not
// supplied.
func resolvePINs(pin1, pin2 string) (string, *string, error) {
	if err := jdl.ValidatePIN(pin1); err != nil {
		return "", nil, fmt.Errorf("--pin1: %w", err)
	}
	if pin2 == "" {
		return pin1, nil, nil
	}
	if err := jdl.ValidatePIN(pin2); err != nil {
		return "", nil, fmt.Errorf("--pin2: %w", err)
	}
	return pin1, &pin2, nil
}

func printResult(w io.Writer, res *jdl.SessionResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintln(w, res.Describe())
	return err
}

func newServeCmd(cfg *config.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve card reads to local applications over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			reader := jdl.NewReader(jdl.WithLogger(log), jdl.WithObserver(m))
			open := pcsc.Factory(pcsc.Options{Reader: cfg.Name, Wait: cfg.CardWait})

			return server.New(reader, open, m, reg, log).ListenAndServe(cmd.Context(), cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "listen address (env JDL_LISTEN_ADDR)")
	return cmd
}

func newReadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List connected PC/SC readers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			readers, err := pcsc.ListReaders()
			if err != nil {
				return err
			}
			if len(readers) == 0 {
				return pcsc.ErrNoReader
			}
			for i, r := range readers {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n", i, r)
			}
			return nil
		},
	}
}
