package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sideeye/internal/config"
	"github.com/olegrjumin/sideeye/internal/httpclient"
	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/service"
	"github.com/olegrjumin/sideeye/internal/store"
)

// app carries state shared by every subcommand
type app struct {
	out, errOut io.Writer

	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "sideeye",
		Short: "Find client-side-only authorization signals in HTML",
		Long: `sideeye inspects pages for controls that are hidden or disabled only in
the browser, passwords rendered into the DOM, role hints, secret-like values
in inline scripts and DevTools-blocking code.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (overrides SIDEEYE_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides LOG_LEVEL)")

	root.AddCommand(newScanCmd(a), newServeCmd(a), newHintCmd(a))
	return root
}

// load reads configuration and builds the logger
func (a *app) load() error {
	if a.configPath != "" {
		os.Setenv("SIDEEYE_CONFIG", a.configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	// Logs go to stderr so scan output can be piped
	a.logger = logging.NewWithWriter(a.errOut, logging.ParseLevel(cfg.LogLevel))
	return nil
}

func (a *app) fetcher() *httpclient.Client {
	return httpclient.NewClient(httpclient.Options{
		Timeout:      a.cfg.RequestTimeout,
		MaxBodyBytes: a.cfg.MaxBodyBytes,
		RatePerHost:  a.cfg.FetchRate,
		UserAgent:    a.cfg.UserAgent,
	})
}

func (a *app) newService(opts ...service.Option) *service.Service {
	return service.New(store.New(a.cfg.MaxFindings), a.logger, append([]service.Option{service.WithFetcher(a.fetcher())}, opts...)...)
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
