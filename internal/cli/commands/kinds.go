package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewKindsCommand creates the kinds command.
func NewKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the kinds a grammar exports",
		Long: `List the kind names the configured grammar exports, with their declared
priorities. Dynamic kinds are synthesized per grammar rule.`,
		Example: `  sqlwhat kinds
  sqlwhat kinds -g plsql -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			d, err := cc.Dispatcher()
			if err != nil {
				return err
			}

			names := d.Kinds()
			infos := make([]output.KindInfo, 0, len(names))
			for _, name := range names {
				k, _ := d.Kind(name)
				infos = append(infos, output.KindInfo{
					Name:     name,
					Priority: k.Priority(),
					Abstract: k.Abstract(),
					Dynamic:  k.Dynamic(),
				})
			}

			r := cc.Renderer
			if ok, err := r.Structured(infos); ok {
				return err
			}

			title := fmt.Sprintf("Kinds of %s (%d total)", d.Module().Name(), len(infos))
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatHeader(1, title))
				r.Println("")
			} else {
				r.Header(1, title)
			}

			rows := make([][]string, 0, len(infos))
			for _, k := range infos {
				rows = append(rows, []string{k.Name, strconv.Itoa(k.Priority), yesNo(k.Abstract), yesNo(k.Dynamic)})
			}
			r.Table([]string{"Name", "Priority", "Abstract", "Dynamic"}, rows)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
