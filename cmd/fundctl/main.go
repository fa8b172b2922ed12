// Command fundctl rebuilds dataset indexes, inspects them and runs one-off
// queries against the same configuration as the API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/app"
	"github.com/kailas-cloud/fundsearch/internal/config"
	"github.com/kailas-cloud/fundsearch/internal/domain/result"
	logpkg "github.com/kailas-cloud/fundsearch/internal/logger"
	"github.com/kailas-cloud/fundsearch/internal/repository/dataset"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
	"github.com/kailas-cloud/fundsearch/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(os.Stdout, app.Gateways{}).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fundctl:", err)
		return 1
	}
	return 0
}

// newCLI builds the command tree. gw replaces the network gateways in tests.
func newCLI(out io.Writer, gw app.Gateways) *cli.App {
	r := &runner{out: out, gateways: gw}
	return &cli.App{
		Name:    "fundctl",
		Usage:   "Operate fundsearch dataset indexes",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config (default: config/<env>.yaml)",
				EnvVars: []string{"FUNDSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Config environment name",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Before: r.setup,
		After:  r.teardown,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Rebuild dataset indexes from their raw sources",
				Action: r.build,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "dataset",
						Aliases: []string{"d"},
						Usage:   "Dataset to rebuild (repeatable, default: all)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Resolve a query and print the results as JSON",
				ArgsUsage: "<text>",
				Action:    r.query,
			},
			{
				Name:   "datasets",
				Usage:  "Show persisted index manifests",
				Action: r.datasets,
			},
		},
	}
}

type runner struct {
	out      io.Writer
	gateways app.Gateways

	cfg    config.Config
	logger *zap.Logger
	app    *app.App
}

func (r *runner) setup(c *cli.Context) error {
	var err error
	if path := c.String("config"); path != "" {
		r.cfg, err = config.LoadFile(path)
	} else {
		r.cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	r.logger, err = logpkg.NewLogger("cli", c.String("log-level"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func (r *runner) teardown(*cli.Context) error {
	if r.app != nil {
		r.app.Close()
	}
	if r.logger != nil {
		_ = r.logger.Sync()
	}
	return nil
}

// assemble builds the object graph on first use; the datasets command never needs it.
func (r *runner) assemble(ctx context.Context) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	a, err := app.New(ctx, r.cfg, r.gateways, r.logger)
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

func (r *runner) build(c *cli.Context) error {
	ids := c.StringSlice("dataset")
	if len(ids) == 0 {
		for _, d := range r.cfg.Datasets {
			ids = append(ids, d.ID)
		}
	}
	for _, id := range ids {
		if _, ok := r.cfg.Dataset(id); !ok {
			return fmt.Errorf("unknown dataset %q", id)
		}
	}

	a, err := r.assemble(c.Context)
	if err != nil {
		return err
	}

	var failed []string
	statuses := make([]registry.Status, 0, len(ids))
	for _, id := range ids {
		st, err := a.Registry.BuildIndexFor(c.Context, id)
		if err != nil {
			failed = append(failed, id)
			st.Error = err.Error()
		}
		statuses = append(statuses, st)
	}
	r.printStatuses(statuses)

	if len(failed) > 0 {
		return fmt.Errorf("build failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func (r *runner) query(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return errors.New("query text is required")
	}

	a, err := r.assemble(c.Context)
	if err != nil {
		return err
	}
	if _, err := a.Start(c.Context); err != nil {
		return err
	}

	results := result.FormatAll(a.Query.Resolve(c.Context, text))
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"results": results})
}

func (r *runner) datasets(*cli.Context) error {
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tDIM\tBUILT\tSOURCE")
	for _, d := range r.cfg.Datasets {
		m, ok, err := dataset.ReadManifest(d.MetadataFile)
		switch {
		case err != nil:
			fmt.Fprintf(tw, "%s\t-\t-\tunreadable\t%v\n", d.ID, err)
			continue
		case !ok:
			fmt.Fprintf(tw, "%s\t-\t-\tnever\t%s\n", d.ID, sourceState(d.Source, ""))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			d.ID, m.Rows, m.Dim, m.BuiltAt.Format("2006-01-02 15:04:05"), sourceState(d.Source, m.Fingerprint))
	}
	return tw.Flush()
}

// sourceState compares the raw source with the fingerprint it was built from.
func sourceState(path, builtFrom string) string {
	fp, err := dataset.FingerprintFile(path)
	switch {
	case err != nil:
		return "missing"
	case builtFrom == "":
		return "unbuilt"
	case fp != builtFrom:
		return "changed"
	default:
		return "current"
	}
}

func (r *runner) printStatuses(statuses []registry.Status) {
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSTATE\tROWS\tDIM\tERROR")
	for _, st := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", st.ID, st.State, st.Rows, st.Dim, st.Error)
	}
	_ = tw.Flush()
}
