package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/leapstack-labs/sqlwhat/internal/watch"
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/dispatch"
	"github.com/leapstack-labs/sqlwhat/pkg/selector"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type selectOptions struct {
	priority int
	head     bool
	expr     string
	watch    bool
}

// NewSelectCommand creates the select command.
func NewSelectCommand() *cobra.Command {
	opts := &selectOptions{}

	cmd := &cobra.Command{
		Use:   "select <kind> [file...]",
		Short: "Find the nodes of a kind in SQL",
		Long: `Parse SQL with the configured grammar and list the nodes matching a kind.

The kind is a name the grammar exports (e.g. SelectStmt, Identifier) or a
rule name (e.g. Query_block). Nodes whose priority reaches the threshold act
as barriers: nothing beneath them is selected. The threshold defaults to the
kind's own priority; raise it with --priority to reach into subqueries.

Several files are parsed concurrently; results follow argument order.`,
		Example: `  # Outermost statements only
  sqlwhat select SelectStmt query.sql

  # Every identifier, including those in subqueries
  sqlwhat select Identifier -p 999 -e "SELECT id FROM artists"

  # Rule names with the plsql grammar
  sqlwhat select Query_block -g plsql -p 3 query.sql

  # Re-run whenever the files change
  sqlwhat select SelectStmt --watch models/*.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().IntVarP(&opts.priority, "priority", "p", 0, "Selection threshold (default: the kind's priority)")
	cmd.Flags().BoolVar(&opts.head, "head", false, "Only select on the immediate frontier of the root")
	cmd.Flags().StringVarP(&opts.expr, "expr", "e", "", "Inline SQL to query instead of files")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run when the given files change")

	return cmd
}

func runSelect(cmd *cobra.Command, opts *selectOptions, kind string, files []string) error {
	if opts.watch && len(files) == 0 {
		return fmt.Errorf("--watch needs at least one file")
	}
	cc := NewCommandContext(cmd)

	d, err := cc.Dispatcher()
	if err != nil {
		return err
	}

	var selOpts []selector.Option
	if cmd.Flags().Changed("priority") {
		selOpts = append(selOpts, selector.WithPriority(opts.priority))
	}
	sel, err := d.Selector(kind, selOpts...)
	if err != nil {
		return err
	}

	q := &query{
		dispatcher: d,
		selector:   sel,
		target:     kind,
		start:      cc.Cfg.Start,
		head:       opts.head,
		logger:     cc.Logger,
	}

	sources, err := readSources(cmd, opts.expr, files)
	if err != nil {
		return err
	}
	results, err := q.run(cmd.Context(), sources)
	if err != nil {
		return err
	}
	if err := renderSelect(cc.Renderer, results); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}
	return watchSelect(cmd.Context(), cc, q, files)
}

// query runs one selector over many sources.
type query struct {
	dispatcher *dispatch.Dispatcher
	selector   *selector.Selector
	target     string
	start      string
	head       bool
	logger     *slog.Logger
}

// run parses and selects each source concurrently. Results keep the order
// of sources.
func (q *query) run(ctx context.Context, sources []source) ([]output.SelectOutput, error) {
	results := make([]output.SelectOutput, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := q.one(src)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (q *query) one(src source) (output.SelectOutput, error) {
	tree, err := q.dispatcher.Parse(src.Text, q.start)
	if err != nil {
		return output.SelectOutput{}, fmt.Errorf("%s: %w", src.Name, err)
	}

	var matches []ast.Node
	if q.head {
		matches = q.selector.VisitHead(tree)
	} else {
		matches = q.selector.Visit(tree)
	}
	q.logger.Debug("selected",
		slog.String("source", src.Name),
		slog.String("selector", q.selector.String()),
		slog.Int("matches", len(matches)))

	res := output.SelectOutput{
		Source:   src.Name,
		Grammar:  q.dispatcher.Module().Name(),
		Target:   q.target,
		Priority: q.selector.Priority(),
		Head:     q.head,
		Matches:  make([]output.MatchInfo, 0, len(matches)),
	}
	for i, m := range matches {
		res.Matches = append(res.Matches, output.NewMatchInfo(i+1, m))
	}
	return res, nil
}

func watchSelect(ctx context.Context, cc *CommandContext, q *query, files []string) error {
	w, err := watch.New(files, watch.WithLogger(cc.Logger))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	cc.Renderer.Muted(fmt.Sprintf("Watching %d file(s). Press Ctrl+C to stop.", len(files)))
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		sources, err := readFiles(changed)
		if err != nil {
			cc.Renderer.Warning(err.Error())
			return nil
		}
		results, err := q.run(ctx, sources)
		if err != nil {
			cc.Renderer.Warning(err.Error())
			return nil
		}
		return renderSelect(cc.Renderer, results)
	})
}

func renderSelect(r *output.Renderer, results []output.SelectOutput) error {
	if ok, err := r.Structured(results); ok {
		return err
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	for i, res := range results {
		if i > 0 {
			r.Println("")
		}
		title := fmt.Sprintf("%s: %d match(es) for %s", res.Source, len(res.Matches), res.Target)
		if markdown {
			r.Println(output.FormatHeader(2, title))
			r.Println("")
			r.Println(output.FormatKeyValue("Grammar", res.Grammar))
			r.Println(output.FormatKeyValue("Priority", strconv.Itoa(res.Priority)))
			if res.Head {
				r.Println(output.FormatKeyValue("Head", "true"))
			}
			r.Println("")
		} else {
			r.Header(1, title)
		}

		if len(res.Matches) == 0 {
			r.Muted("(no matches)")
			continue
		}
		rows := make([][]string, 0, len(res.Matches))
		for _, m := range res.Matches {
			rows = append(rows, []string{
				strconv.Itoa(m.Index),
				m.Kind,
				fmt.Sprintf("%d:%d", m.Line, m.Column),
				m.Tree,
			})
		}
		r.Table([]string{"#", "Kind", "Position", "Tree"}, rows)
	}
	return nil
}
