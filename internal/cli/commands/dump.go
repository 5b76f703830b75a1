package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/spf13/cobra"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	var (
		expr    string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print the syntax tree of SQL",
		Long: `Parse SQL with the configured grammar and print its syntax tree.

Each node shows its kind name and effective priority, plus the token for
leaves. Use --compact for the one-line structural form used when comparing
trees.`,
		Example: `  sqlwhat dump query.sql
  sqlwhat dump -e "1 + 2 + 3" --start expression
  sqlwhat dump -g plsql --compact -e "SELECT a FROM b"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			d, err := cc.Dispatcher()
			if err != nil {
				return err
			}

			sources, err := readSources(cmd, expr, args)
			if err != nil {
				return err
			}
			src := sources[0]

			tree, err := d.Parse(src.Text, cc.Cfg.Start)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			return renderDump(cc.Renderer, tree, compact)
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "Inline SQL to dump instead of a file")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print the one-line structural form")

	return cmd
}

func renderDump(r *output.Renderer, tree ast.Node, compact bool) error {
	if compact {
		if ok, err := r.Structured(map[string]string{"tree": ast.Dump(tree)}); ok {
			return err
		}
		r.Println(ast.Dump(tree))
		return nil
	}

	item := output.NewTreeItem(tree)
	if ok, err := r.Structured(item); ok {
		return err
	}
	r.Tree(item)
	return nil
}
