package nlsql_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/forecast-portal/nlsql"
	"github.com/warp/forecast-portal/warehouse"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeGenerator struct {
	sql        string
	err        error
	lastPrompt string
}

func (g *fakeGenerator) GenerateSQL(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	return g.sql, g.err
}

type fakeWarehouse struct {
	catalog  []warehouse.CatalogEntry
	columns  map[string][]warehouse.Column
	result   *warehouse.Result
	queryErr error
	lastSQL  string
}

func (w *fakeWarehouse) Dataset() string { return "ds" }

func (w *fakeWarehouse) ListObjects(context.Context) ([]warehouse.CatalogEntry, error) {
	return w.catalog, nil
}

func (w *fakeWarehouse) DescribeObject(_ context.Context, id string) ([]warehouse.Column, error) {
	cols, ok := w.columns[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	return cols, nil
}

func (w *fakeWarehouse) Query(_ context.Context, sqlStr string) (*warehouse.Result, error) {
	w.lastSQL = sqlStr
	return w.result, w.queryErr
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		catalog: []warehouse.CatalogEntry{{ID: "forecast_final", Type: warehouse.TypeTable}},
		columns: map[string][]warehouse.Column{
			"forecast_final": {
				{Name: "period", Type: "VARCHAR"},
				{Name: "date", Type: "DATE"},
				{Name: "calls_forecast", Type: "DOUBLE"},
			},
		},
	}
}

// =============================================================================
// ASK FLOW
// =============================================================================

func TestAsk_TableAnswer(t *testing.T) {
	wh := newFakeWarehouse()
	wh.result = &warehouse.Result{
		Headers: []string{"period", "calls_forecast"},
		Rows:    [][]any{{"08:00", 120.0}, {"09:00", 90.0}},
	}
	gen := &fakeGenerator{sql: "```sql\nSELECT period, calls_forecast FROM `proj.ds.forecast_final`\n```"}

	answer := nlsql.NewService(gen, wh).Ask(context.Background(), "calls per period?")

	assert.Equal(t, nlsql.AnswerTable, answer.Type)
	require.NotNil(t, answer.Table)
	assert.Equal(t, []string{"period", "calls_forecast"}, answer.Table.Headers)
	for _, row := range answer.Table.Rows {
		assert.Len(t, row, len(answer.Table.Headers))
	}

	// Fences stripped before resolution and execution
	assert.Equal(t, "SELECT period, calls_forecast FROM `proj.ds.forecast_final`", answer.GeneratedSQL)
	assert.Equal(t, answer.GeneratedSQL, wh.lastSQL)
	assert.Equal(t, "forecast_final", answer.IdentifiedObject)
}

func TestAsk_ZeroRowsBecomesText(t *testing.T) {
	wh := newFakeWarehouse()
	wh.result = &warehouse.Result{Headers: []string{"period"}}
	gen := &fakeGenerator{sql: "SELECT period FROM forecast_final WHERE 1=0"}

	answer := nlsql.NewService(gen, wh).Ask(context.Background(), "anything?")

	assert.Equal(t, nlsql.AnswerText, answer.Type)
	assert.Nil(t, answer.Table)
	assert.NotEmpty(t, answer.Text)
}

func TestAsk_UnknownObjectNeverExecutes(t *testing.T) {
	wh := newFakeWarehouse()
	gen := &fakeGenerator{sql: "SELECT * FROM secrets"}

	answer := nlsql.NewService(gen, wh).Ask(context.Background(), "dump secrets")

	assert.Equal(t, nlsql.AnswerText, answer.Type)
	assert.Contains(t, answer.Text, "not found")
	assert.Empty(t, wh.lastSQL, "query must not run for unresolved objects")
	assert.Empty(t, answer.IdentifiedObject)
}

func TestAsk_GeneratorFailureBecomesText(t *testing.T) {
	wh := newFakeWarehouse()
	gen := &fakeGenerator{err: errors.New("model unavailable")}

	answer := nlsql.NewService(gen, wh).Ask(context.Background(), "anything?")

	assert.Equal(t, nlsql.AnswerText, answer.Type)
	assert.Contains(t, answer.Text, "model unavailable")
}

func TestAsk_ExecutionFailureBecomesText(t *testing.T) {
	wh := newFakeWarehouse()
	wh.queryErr = errors.New("syntax error near SELECT")
	gen := &fakeGenerator{sql: "SELECT * FROM forecast_final"}

	answer := nlsql.NewService(gen, wh).Ask(context.Background(), "anything?")

	assert.Equal(t, nlsql.AnswerText, answer.Type)
	assert.Contains(t, answer.Text, "syntax error")
	// SQL and object survive onto the failure answer for debugging
	assert.Equal(t, "SELECT * FROM forecast_final", answer.GeneratedSQL)
	assert.Equal(t, "forecast_final", answer.IdentifiedObject)
}

func TestAsk_NilGenerator(t *testing.T) {
	answer := nlsql.NewService(nil, newFakeWarehouse()).Ask(context.Background(), "anything?")

	assert.Equal(t, nlsql.AnswerText, answer.Type)
	assert.Contains(t, answer.Text, "not configured")
}

func TestAsk_PromptCarriesCatalogContext(t *testing.T) {
	wh := newFakeWarehouse()
	wh.result = &warehouse.Result{Headers: []string{"period"}, Rows: [][]any{{"08:00"}}}
	gen := &fakeGenerator{sql: "SELECT period FROM forecast_final"}

	nlsql.NewService(gen, wh).Ask(context.Background(), "calls per period?")

	assert.Contains(t, gen.lastPrompt, "forecast_final")
	assert.Contains(t, gen.lastPrompt, "calls_forecast: DOUBLE")
	assert.Contains(t, gen.lastPrompt, "calls per period?")
	assert.True(t, strings.Contains(gen.lastPrompt, "'ds'"))
}
