// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cometbft/cometbft/libs/log"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/accumulatenetwork/keyauth/config"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/execute"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/policy"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/verify"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var cmdCheck = &cobra.Command{
	Use:   "check [scenario]",
	Short: "Authorize the transactions of a scenario file",
	Args:  cobra.ExactArgs(1),
	Run:   checkScenario,
}

type checkFlags struct {
	Config      string
	LogLevel    string
	Workers     int
	ShowMetrics bool
	MetricsOut  string
	NoColor     bool
}

var flagCheck checkFlags

func init() {
	cmdMain.AddCommand(cmdCheck)
	flagCheck.register(cmdCheck.Flags())
}

func (f *checkFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Config, "config", "c", "", "Configuration file")
	fs.StringVar(&f.LogLevel, "log-level", "", "Override the configured log level")
	fs.IntVar(&f.Workers, "workers", -1, "Override the number of verification workers")
	fs.BoolVar(&f.ShowMetrics, "metrics", false, "Print authorization metrics after the run")
	fs.StringVar(&f.MetricsOut, "metrics-out", "", "Write authorization metrics to a file in the Prometheus text format")
	fs.BoolVar(&f.NoColor, "no-color", false, "Disable colored output")
}

// useColor returns false if color is disabled or the output is not a
// terminal.
func useColor(noColor bool, out *os.File) bool {
	return !noColor && term.IsTerminal(int(out.Fd()))
}

func checkScenario(_ *cobra.Command, args []string) {
	cfg := config.Default()
	if flagCheck.Config != "" {
		var err error
		cfg, err = config.Load(flagCheck.Config)
		checkf(err, "load config")
	}
	if flagCheck.LogLevel != "" {
		cfg.Logging.Level = flagCheck.LogLevel
	}
	if flagCheck.Workers >= 0 {
		cfg.Auth.Workers = flagCheck.Workers
	}
	check(cfg.Validate())
	if !useColor(flagCheck.NoColor, os.Stdout) {
		color.NoColor = true
	}

	logger, err := logging.NewLogger(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	checkf(err, "create logger")

	s, err := LoadScenario(args[0])
	checkf(err, "load scenario")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: time.Minute}
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	start := time.Now()
	results, err := RunScenario(ctx, s, cfg, logger)
	check(err)

	failed := printResults(os.Stdout, results, time.Since(start))
	if flagCheck.ShowMetrics {
		check(printMetrics(os.Stdout))
	}
	if flagCheck.MetricsOut != "" {
		f, err := os.Create(flagCheck.MetricsOut)
		checkf(err, "create %s", flagCheck.MetricsOut)
		check(writeMetrics(f))
		check(f.Close())
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// Result is the authorization result of a scenario transaction.
type Result struct {
	Doc     *TransactionDoc
	Outcome *execute.Outcome

	// AdHoc is the result of the ad hoc check of the touched accounts, if
	// there are any.
	AdHoc    *bool
	AdHocErr error
}

// Passed returns true if the status matches the expected status, if any.
func (r *Result) Passed() bool {
	if r.Doc.Expect == "" {
		return true
	}
	expect, ok := errors.StatusByName(r.Doc.Expect)
	return ok && expect == r.Outcome.Status
}

// RunScenario authorizes the scenario's transactions in order.
func RunScenario(ctx context.Context, s *Scenario, cfg *config.Config, logger log.Logger) ([]*Result, error) {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	logger = logger.With("run", uuid.NewString())

	store, err := s.Store()
	if err != nil {
		return nil, err
	}

	txns := make([]*protocol.Transaction, len(s.Transactions))
	for i, doc := range s.Transactions {
		txns[i], err = s.Transaction(doc)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("transaction %d: %w", i, err)
		}
	}

	p := policy.New(store)
	x := execute.NewExecutor(execute.Options{
		Policy:               p,
		Accounts:             p,
		Verifier:             verify.NewBatchVerifier(cfg.Auth.Workers, logger),
		NewFactory:           verify.NewSigningFactory,
		Logger:               logger,
		IngestWorkers:        cfg.Auth.IngestWorkers,
		MaxKeyDepth:          cfg.Auth.MaxKeyDepth,
		SkipUnusedSignatures: cfg.Auth.SkipUnusedSignatures,
	})

	outcomes := execute.HandleSet(ctx, x, txns)
	results := make([]*Result, len(outcomes))
	for i, out := range outcomes {
		r := &Result{Doc: s.Transactions[i], Outcome: out}
		results[i] = r
		if len(r.Doc.Touched) == 0 || out.Context.Authorization == nil {
			continue
		}

		ok, err := x.AdHocCheck(out.Context).AllRequiredKeysAreActive(ctx, r.Doc.Touched, out.Context.Txn.Payer)
		r.AdHoc, r.AdHocErr = &ok, err
	}
	return results, nil
}

var statusTitle = cases.Title(language.English, cases.NoLower)

func printResults(w io.Writer, results []*Result, elapsed time.Duration) int {
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	dim := color.New(color.FgHiBlack)

	var failed int
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for i, r := range results {
		name := r.Doc.Name
		if name == "" {
			name = fmt.Sprintf("#%d %s", i+1, r.Outcome.Context.Txn.ID())
		}

		c := good
		if r.Outcome.Status != errors.OK {
			c = bad
		}
		mark := good.Sprint("pass")
		if !r.Passed() {
			mark = bad.Sprint("FAIL")
			failed++
		}

		path := "reused"
		sigs := 0
		if a := r.Outcome.Context.Authorization; a != nil {
			if a.UsedSyncPath {
				path = "sync"
			}
			sigs = len(a.Signatures)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s", mark, name, c.Sprint(statusTitle.String(r.Outcome.Status.String())), dim.Sprint(path), dim.Sprintf("%s signatures", humanize.Comma(int64(sigs))))
		switch {
		case r.AdHocErr != nil:
			fmt.Fprintf(tw, "\t%s", bad.Sprintf("ad hoc: %v", r.AdHocErr))
		case r.AdHoc != nil && *r.AdHoc:
			fmt.Fprintf(tw, "\t%s", good.Sprint("ad hoc: active"))
		case r.AdHoc != nil:
			fmt.Fprintf(tw, "\t%s", bad.Sprint("ad hoc: inactive"))
		}
		if r.Outcome.Error != nil {
			fmt.Fprintf(tw, "\t%s", bad.Sprint(r.Outcome.Error))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "%s transactions in %v, %s failed\n", humanize.Comma(int64(len(results))), elapsed.Round(time.Microsecond), humanize.Comma(int64(failed)))
	return failed
}

func printMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", mf.GetName(), labels, humanize.Comma(int64(m.GetCounter().GetValue())))
		}
	}
	return tw.Flush()
}

// writeMetrics writes the authorization metrics in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "keyauth_") {
			continue
		}
		_, err = expfmt.MetricFamilyToText(w, mf)
		if err != nil {
			return err
		}
	}
	return nil
}
