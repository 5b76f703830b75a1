package dispatch_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/leapstack-labs/sqlwhat/internal/testutil"
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/dispatch"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/grammars/plsql"
	"github.com/leapstack-labs/sqlwhat/pkg/grammars/postgres"
	"github.com/leapstack-labs/sqlwhat/pkg/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	base  ast.Kind
	kinds map[string]ast.Kind
}

func (fakeModule) Name() string { return "fake" }

func (fakeModule) Parse(string, string) (ast.Node, error) {
	return nil, errors.New("fake grammar cannot parse")
}

func (f fakeModule) Kinds() map[string]ast.Kind { return f.kinds }

func (f fakeModule) BaseKind() ast.Kind { return f.base }

func TestFromModule(t *testing.T) {
	d, err := dispatch.FromModule(postgres.Module{}, dispatch.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, postgres.AstNode, d.Base())
	assert.Equal(t, postgres.Name, d.Module().Name())

	kinds := d.Kinds()
	assert.IsIncreasing(t, kinds)
	assert.Contains(t, kinds, "SelectStmt")
	assert.Contains(t, kinds, "Identifier")

	k, ok := d.Kind("SelectStmt")
	require.True(t, ok)
	assert.Equal(t, postgres.KindSelectStmt, k)
}

func TestConstructionErrors(t *testing.T) {
	concrete := ast.Register(ast.KindSpec{Name: "DispatchConcrete"})

	_, err := dispatch.New(concrete, postgres.Module{})
	require.ErrorIs(t, err, ast.ErrNotAbstract)

	_, err = dispatch.New(ast.InvalidKind, postgres.Module{})
	require.ErrorIs(t, err, dispatch.ErrNoBaseKind)

	_, err = dispatch.FromModule(fakeModule{base: ast.InvalidKind})
	require.ErrorIs(t, err, dispatch.ErrNoBaseKind)

	_, err = dispatch.FromModule(nil)
	require.ErrorIs(t, err, dispatch.ErrNilModule)

	_, err = dispatch.ForGrammar("nope")
	require.ErrorIs(t, err, grammar.ErrUnknownGrammar)
}

func TestRegistryIsCopied(t *testing.T) {
	base := ast.Register(ast.KindSpec{Name: "DispatchBase", Abstract: true})
	leaf := ast.Register(ast.KindSpec{Name: "DispatchLeaf", Base: base})
	kinds := map[string]ast.Kind{"DispatchLeaf": leaf}

	d, err := dispatch.New(base, fakeModule{base: base, kinds: kinds})
	require.NoError(t, err)

	kinds["DispatchLeaf"] = base
	kinds["Added"] = leaf

	k, ok := d.Kind("DispatchLeaf")
	require.True(t, ok)
	assert.Equal(t, leaf, k)
	assert.Equal(t, []string{"DispatchLeaf"}, d.Kinds())
}

func TestStaticEquivalence(t *testing.T) {
	d, err := dispatch.ForGrammar(postgres.Name)
	require.NoError(t, err)

	tree, err := d.Parse("SELECT id FROM artists", "")
	require.NoError(t, err)

	for _, prio := range []int{0, 999} {
		got, err := d.Find("Identifier", tree, selector.WithPriority(prio))
		require.NoError(t, err)
		want, err := selector.Find(tree, postgres.KindIdentifier, selector.WithPriority(prio))
		require.NoError(t, err)
		assert.Equal(t, want, got, "priority %d", prio)
	}

	got, err := d.Find("Identifier", tree, selector.WithPriority(999))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = d.Find("Identifier", tree)
	require.NoError(t, err)
	assert.Empty(t, got)

	sel, err := d.Selector("SelectStmt")
	require.NoError(t, err)
	assert.True(t, sel.Strict())
	assert.Equal(t, postgres.KindSelectStmt, sel.Target())
}

func TestRuleNameEquivalence(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	d, err := dispatch.New(plsql.AstNode, plsql.Module{}, dispatch.WithLogger(logger))
	require.NoError(t, err)

	tree, err := d.Parse("SELECT a FROM b", "")
	require.NoError(t, err)

	got, err := d.Find("Query_block", tree, selector.WithPriority(3))
	require.NoError(t, err)

	sel, err := selector.New(plsql.AstNode,
		selector.WithName("Query_block"),
		selector.WithStrict(false),
		selector.WithPriority(3))
	require.NoError(t, err)
	want := sel.Visit(tree)

	require.Len(t, want, 1)
	assert.Equal(t, want, got)
	assert.Equal(t, "Query_block", ast.NameOf(got[0]))
	assert.Contains(t, logs.String(), "resolved rule name")

	resolved, err := d.Selector("Query_block")
	require.NoError(t, err)
	assert.Equal(t, "Query_block", resolved.Name())
	assert.Equal(t, plsql.AstNode, resolved.Target())
	assert.Equal(t, plsql.QueryBlockPriority, resolved.Priority())
}

func TestUnknownNameFindsNothing(t *testing.T) {
	d, err := dispatch.ForGrammar(postgres.Name)
	require.NoError(t, err)

	tree, err := d.Parse("SELECT a FROM b", "")
	require.NoError(t, err)

	got, err := d.Find("NoSuchKind", tree, selector.WithPriority(999))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = d.Find("", tree)
	require.ErrorIs(t, err, selector.ErrEmptyName)
}

func TestFindHead(t *testing.T) {
	d, err := dispatch.ForGrammar(postgres.Name)
	require.NoError(t, err)

	tree, err := d.Parse("1 + 2 + 3", postgres.StartExpression)
	require.NoError(t, err)

	outer, err := d.Find("BinaryExpr", tree)
	require.NoError(t, err)
	require.Len(t, outer, 1)

	inner, err := d.FindHead("BinaryExpr", outer[0])
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, outer[0].(*postgres.BinaryExpr).Left, inner[0])
}

func TestConcurrentFind(t *testing.T) {
	d, err := dispatch.ForGrammar(plsql.Name)
	require.NoError(t, err)

	tree, err := d.Parse("SELECT a FROM b WHERE a IN (SELECT c FROM d)", "")
	require.NoError(t, err)

	want, err := d.Find("Query_block", tree, selector.WithPriority(3))
	require.NoError(t, err)
	require.Len(t, want, 2)

	const numGoroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := d.Find("Query_block", tree, selector.WithPriority(3))
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestOnlyPriorityMayBeOverridden(t *testing.T) {
	d, err := dispatch.ForGrammar(postgres.Name)
	require.NoError(t, err)
	tree, err := d.Parse("SELECT a FROM x WHERE a = (SELECT b FROM y)", "")
	require.NoError(t, err)

	for name, opt := range map[string]selector.Option{
		"strict": selector.WithStrict(false),
		"name":   selector.WithName("SelectStmt"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Find("SelectStmt", tree, opt)
			require.ErrorIs(t, err, dispatch.ErrMatchFixed)
			_, err = d.Selector("Query_block", opt)
			require.ErrorIs(t, err, dispatch.ErrMatchFixed)
		})
	}

	sel, err := d.Selector("SelectStmt", selector.WithPriority(999))
	require.NoError(t, err)
	assert.True(t, sel.Strict())
	assert.Equal(t, 999, sel.Priority())
	assert.Len(t, sel.Visit(tree), 2)
}
