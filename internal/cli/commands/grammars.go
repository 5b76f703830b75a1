package commands

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/spf13/cobra"
)

// NewGrammarsCommand creates the grammars command.
func NewGrammarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grammars",
		Short: "List the registered grammars",
		Long:  `List the grammars sqlwhat can parse with, their base kinds and start rules.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			r := cc.Renderer

			infos := grammarInfos()
			if ok, err := r.Structured(infos); ok {
				return err
			}

			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatHeader(1, "Grammars"))
				r.Println("")
			} else {
				r.Header(1, "Grammars")
			}
			rows := make([][]string, 0, len(infos))
			for _, g := range infos {
				rows = append(rows, []string{g.Name, g.Base, strings.Join(g.StartRules, ", "), strconv.Itoa(g.Kinds)})
			}
			r.Table([]string{"Name", "Base", "Start rules", "Kinds"}, rows)
			return nil
		},
	}
}

func grammarInfos() []output.GrammarInfo {
	names := grammar.List()
	infos := make([]output.GrammarInfo, 0, len(names))
	for _, name := range names {
		m, ok := grammar.Get(name)
		if !ok {
			continue
		}
		info := output.GrammarInfo{
			Name:  name,
			Base:  m.BaseKind().String(),
			Kinds: len(m.Kinds()),
		}
		if sr, ok := m.(grammar.StartRuler); ok {
			info.StartRules = sr.StartRules()
		}
		infos = append(infos, info)
	}
	return infos
}
