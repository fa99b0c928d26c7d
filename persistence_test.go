package idmend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/reconciler"
	"github.com/agentstation/idmend/pkg/tables"
)

func TestLogTablesFollowStrategy(t *testing.T) {
	e := &engine{hooks: newHooks(), config: defaultConfig()}

	result := reconciler.NewResult(tables.NewSet())
	result.Metadata.Strategy = reconciler.StrategyMove
	names := func(ts []*tables.Table) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}
	assert.Equal(t,
		[]string{constants.DeleteLogFile, constants.MoveLogFile, constants.MergeLogFile},
		names(e.logTables(result)))

	result.Metadata.Strategy = reconciler.StrategyExchange
	assert.Equal(t,
		[]string{constants.DeleteLogFile, constants.ExchangeLogFile, constants.MergeLogFile},
		names(e.logTables(result)))
}

func TestPersistRecordsWriteErrors(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{
		"forms.csv": forms,
		"sites.csv": "Site;Name\n1;Berlin\n",
	})
	// a directory where forms.csv should go makes that one write fail
	require.NoError(t, os.MkdirAll(filepath.Join(f.out, "forms.csv"), 0o755))

	eng, err := New(f.options()...)
	require.NoError(t, err)
	var skipped []string
	eng.OnTableSkipped(func(table string, _ error) { skipped = append(skipped, table) })

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"forms.csv"}, skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "forms.csv")
	assert.Contains(t, summary.Written, "sites.csv")
	assert.Contains(t, summary.Written, constants.MergeLogFile)
	assert.Equal(t, "Site;Name\n1;Berlin\n", readOut(t, f, "sites.csv"))
}

// cancelOnOutput reports cancellation as soon as anything exists in dir.
type cancelOnOutput struct {
	context.Context
	dir string
}

func (c cancelOnOutput) Err() error {
	if entries, _ := os.ReadDir(c.dir); len(entries) > 0 {
		return context.Canceled
	}
	return nil
}

func TestPersistCompletesAfterCancel(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{
		"a.csv":     "participant_identifier;visit_name\nP005;T1\n",
		"forms.csv": forms,
		"sites.csv": "Site;Name\n1;Berlin\n",
	})
	eng, err := New(f.options()...)
	require.NoError(t, err)

	summary, err := eng.Run(cancelOnOutput{Context: context.Background(), dir: f.out})
	require.NoError(t, err)
	assert.Empty(t, summary.Errors)
	for _, name := range []string{"a.csv", "forms.csv", "sites.csv", constants.MergeLogFile, constants.RunSummaryFile} {
		_, statErr := os.Stat(filepath.Join(f.out, name))
		assert.NoError(t, statErr, name)
	}
}

func TestAnnotateCompletesAfterCancel(t *testing.T) {
	f := newFixture(t, ruleset, map[string]string{
		"a.csv":                   "participant_identifier;visit_name\nP005;T1\n",
		"forms.csv":               forms,
		"Kind-of-participant.csv": "participant_identifier;Site\nP001;3\n",
	})
	eng, err := New(f.options()...)
	require.NoError(t, err)

	summary, err := eng.Annotate(cancelOnOutput{Context: context.Background(), dir: f.out})
	require.NoError(t, err)
	assert.Contains(t, summary.Written, "a.csv")
	assert.Contains(t, summary.Written, "forms.csv")
}
