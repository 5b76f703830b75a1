package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlwhat/internal/cli/config"
	"github.com/leapstack-labs/sqlwhat/internal/cli/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// isolate runs the test in an empty directory so no sqlwhat.yaml is found.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()
	return dir
}

func run(stdin string, args ...string) result {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func decodeSelect(t *testing.T, s string) []output.SelectOutput {
	t.Helper()
	var got []output.SelectOutput
	require.NoError(t, json.Unmarshal([]byte(s), &got), "output: %s", s)
	return got
}

// ---------- Commands ----------

func TestVersionCommand(t *testing.T) {
	isolate(t)
	res := run("", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "sqlwhat v"+Version)
}

func TestHelpListsCommands(t *testing.T) {
	isolate(t)
	res := run("", "--help")
	require.NoError(t, res.err)
	for _, name := range []string{"select", "dump", "kinds", "grammars", "version", "completion"} {
		assert.Contains(t, res.stdout, name)
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	res := run("", "completion", "bash")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "sqlwhat")

	res = run("", "completion", "tcsh")
	require.Error(t, res.err)
}

// ---------- select ----------

func TestSelectPriorityGating(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"default threshold", nil, 0},
		{"raised threshold", []string{"-p", "999"}, 2},
		{"explicit zero", []string{"--priority", "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"select", "Identifier", "-o", "json", "-e", "SELECT id FROM artists"}, tt.args...)
			res := run("", args...)
			require.NoError(t, res.err, res.stderr)

			got := decodeSelect(t, res.stdout)
			require.Len(t, got, 1)
			assert.Equal(t, "<expr>", got[0].Source)
			assert.Equal(t, "postgres", got[0].Grammar)
			assert.Len(t, got[0].Matches, tt.want)
		})
	}
}

func TestSelectNestedStatements(t *testing.T) {
	isolate(t)
	res := run("", "select", "SelectStmt", "-o", "json", "-p", "999",
		"-e", "SELECT a FROM x WHERE a = (SELECT b FROM y)")
	require.NoError(t, res.err, res.stderr)

	got := decodeSelect(t, res.stdout)
	require.Len(t, got, 1)
	require.Len(t, got[0].Matches, 2)
	assert.Equal(t, `SelectStmt(Identifier "b", Identifier "y")`, got[0].Matches[1].Tree)
	assert.Equal(t, 999, got[0].Priority)
}

func TestSelectRuleNames(t *testing.T) {
	isolate(t)
	res := run("", "select", "Query_block", "-g", "plsql", "-p", "3", "-o", "yaml",
		"-e", "SELECT a FROM b")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "kind: Query_block")
	assert.Contains(t, res.stdout, "grammar: plsql")
}

func TestSelectHead(t *testing.T) {
	isolate(t)
	res := run("", "select", "BinaryExpr", "--head", "--start", "expression", "-o", "json", "-e", "1 + 2 + 3")
	require.NoError(t, res.err, res.stderr)

	got := decodeSelect(t, res.stdout)
	require.Len(t, got[0].Matches, 1)
	assert.Equal(t, `BinaryExpr "+"(Terminal "1", Terminal "2")`, got[0].Matches[0].Tree)
	assert.True(t, got[0].Head)
}

func TestSelectFilesKeepOrder(t *testing.T) {
	dir := isolate(t)
	var files []string
	for i, q := range []string{"SELECT a FROM t", "SELECT a, b FROM t", "SELECT a, b, c FROM t"} {
		path := filepath.Join(dir, string(rune('a'+i))+".sql")
		require.NoError(t, os.WriteFile(path, []byte(q), 0o600))
		files = append(files, path)
	}

	args := append([]string{"select", "Identifier", "-p", "999", "-o", "json"}, files...)
	res := run("", args...)
	require.NoError(t, res.err, res.stderr)

	got := decodeSelect(t, res.stdout)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, files[i], r.Source)
		assert.Len(t, r.Matches, i+2)
	}
}

func TestSelectStdin(t *testing.T) {
	isolate(t)
	res := run("SELECT id FROM artists", "select", "Identifier", "-p", "999", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	got := decodeSelect(t, res.stdout)
	assert.Equal(t, "<stdin>", got[0].Source)
	assert.Len(t, got[0].Matches, 2)

	res = run("", "select", "Identifier")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "no SQL given")
}

func TestSelectMarkdown(t *testing.T) {
	isolate(t)
	res := run("", "select", "Identifier", "-p", "999", "-e", "SELECT id FROM artists")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "## <expr>: 2 match(es) for Identifier")
	assert.Contains(t, res.stdout, "- **Priority:** 999")
	assert.Contains(t, res.stdout, `| 2 | Identifier | 1:16 | Identifier "artists" |`)
}

func TestSelectErrors(t *testing.T) {
	isolate(t)

	res := run("", "select", "Identifier", "-g", "mysql", "-e", "SELECT 1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `unknown grammar "mysql"`)

	res = run("", "select", "Identifier", "-e", "SELECT FROM")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "<expr>: postgres: parse error")

	res = run("", "select", "Identifier", "--watch", "-e", "SELECT 1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--watch needs at least one file")
}

func TestSelectVerboseLogsResolution(t *testing.T) {
	isolate(t)
	res := run("", "select", "Query_block", "-g", "plsql", "-v", "-o", "json", "-e", "SELECT a FROM b")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "resolved rule name")
}

func TestConfigFileSelectsGrammar(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlwhat.yaml"), []byte("grammar: plsql\noutput: json\n"), 0o600))

	res := run("", "select", "Query_block", "-e", "SELECT a FROM b")
	require.NoError(t, res.err, res.stderr)
	got := decodeSelect(t, res.stdout)
	assert.Equal(t, "plsql", got[0].Grammar)
	assert.Len(t, got[0].Matches, 1)
}

// ---------- dump, kinds, grammars ----------

func TestDumpCompact(t *testing.T) {
	isolate(t)
	res := run("", "dump", "--compact", "--start", "expression", "-o", "text", "-e", "1 + 2 + 3")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "BinaryExpr \"+\"(BinaryExpr \"+\"(Terminal \"1\", Terminal \"2\"), Terminal \"3\")\n", res.stdout)
}

func TestDumpTree(t *testing.T) {
	isolate(t)
	res := run("", "dump", "-o", "json", "-e", "SELECT id FROM artists")
	require.NoError(t, res.err, res.stderr)

	var item output.TreeItem
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &item))
	assert.Equal(t, "Script [0]", item.Label)
	require.Len(t, item.Children, 1)
	assert.Equal(t, "SelectStmt [1]", item.Children[0].Label)
}

func TestKindsCommand(t *testing.T) {
	isolate(t)
	res := run("", "kinds", "-o", "json")
	require.NoError(t, res.err, res.stderr)

	var kinds []output.KindInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &kinds))
	byName := make(map[string]output.KindInfo)
	for _, k := range kinds {
		byName[k.Name] = k
	}
	assert.Equal(t, 1, byName["SelectStmt"].Priority)
	assert.Equal(t, 3, byName["Subquery"].Priority)
}

func TestGrammarsCommand(t *testing.T) {
	isolate(t)
	res := run("", "grammars", "-o", "json")
	require.NoError(t, res.err, res.stderr)

	var infos []output.GrammarInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &infos))
	names := make([]string, 0, len(infos))
	for _, g := range infos {
		names = append(names, g.Name)
		if g.Name == "plsql" {
			assert.Equal(t, "sql_script", g.StartRules[0])
			assert.Equal(t, "AstNode", g.Base)
		}
	}
	assert.Equal(t, []string{"plsql", "postgres", "sitter"}, names)
}

const sitterSubquerySQL = "SELECT a FROM (SELECT b FROM c) AS s"

func TestSelectSitterSubquery(t *testing.T) {
	isolate(t)
	res := run("", "select", "subquery", "-g", "sitter", "-o", "json", "-e", sitterSubquerySQL)
	require.NoError(t, res.err, res.stderr)

	got := decodeSelect(t, res.stdout)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Priority)
	require.Len(t, got[0].Matches, 1)
	assert.Equal(t, "subquery", got[0].Matches[0].Kind)
}

// childOutEnv names the file a re-executed test binary writes its output to.
const childOutEnv = "CLI_TEST_CHILD_OUT"

// The select runs in a new process so no sitter tree has been parsed
// before the selector is built.
func TestSelectSitterSubqueryFreshProcess(t *testing.T) {
	if out := os.Getenv(childOutEnv); out != "" {
		os.Unsetenv(childOutEnv)
		isolate(t)
		res := run("", "select", "subquery", "-g", "sitter", "-o", "json", "-e", sitterSubquerySQL)
		require.NoError(t, res.err, res.stderr)
		require.NoError(t, os.WriteFile(out, []byte(res.stdout), 0o600))
		return
	}

	out := filepath.Join(t.TempDir(), "select.json")
	cmd := exec.Command(os.Args[0], "-test.run=^TestSelectSitterSubqueryFreshProcess$")
	cmd.Env = append(os.Environ(), childOutEnv+"="+out)
	combined, err := cmd.CombinedOutput()
	require.NoError(t, err, string(combined))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got := decodeSelect(t, string(data))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Priority)
	assert.Len(t, got[0].Matches, 1)
}
