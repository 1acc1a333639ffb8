/*
service.go - Question-answering flow

PURPOSE:
  Orchestrates the ask path: catalog snapshot -> prompt -> generated
  SQL -> table-name resolution -> execution -> answer shaping.

ANSWER CONTRACT:
  Ask never returns an error. Every internal failure (model, resolver,
  execution) is downgraded to a renderable text answer so the caller
  always receives a 200-level payload with something to display. The
  generated SQL and identified object are carried on the answer as far
  as the flow got, for debugging on the client side.

SEE ALSO:
  - resolver.go: Table-name heuristic
  - gemini.go: Generator implementation
  - warehouse/warehouse.go: Catalog and execution collaborator
*/
package nlsql

import (
	"context"
	"fmt"

	"github.com/warp/forecast-portal/warehouse"
)

// Answer types.
const (
	AnswerTable = "table"
	AnswerText  = "text"
)

// Warehouse is the catalog/execution collaborator the ask flow needs.
// *warehouse.Client satisfies it.
type Warehouse interface {
	Dataset() string
	ListObjects(ctx context.Context) ([]warehouse.CatalogEntry, error)
	DescribeObject(ctx context.Context, id string) ([]warehouse.Column, error)
	Query(ctx context.Context, sqlStr string) (*warehouse.Result, error)
}

// Answer is the shaped response for one question.
type Answer struct {
	Type             string            // AnswerTable or AnswerText
	Text             string            // set when Type == AnswerText
	Table            *warehouse.Result // set when Type == AnswerTable
	GeneratedSQL     string
	IdentifiedObject string
}

// Service answers natural-language questions against the warehouse.
type Service struct {
	gen Generator
	wh  Warehouse
}

// NewService creates the ask service. A nil generator is allowed; the
// service then answers every question with a configuration notice.
func NewService(gen Generator, wh Warehouse) *Service {
	return &Service{gen: gen, wh: wh}
}

// Ask answers one question. All failures are downgraded to text
// answers; Ask never returns an error.
func (s *Service) Ask(ctx context.Context, question string) *Answer {
	if s.gen == nil {
		return &Answer{
			Type: AnswerText,
			Text: "The generative model is not configured on this server.",
		}
	}

	answer := &Answer{}

	catalog, err := s.wh.ListObjects(ctx)
	if err != nil {
		return failure(answer, err)
	}

	objects := make([]ObjectContext, 0, len(catalog))
	for _, entry := range catalog {
		cols, err := s.wh.DescribeObject(ctx, entry.ID)
		if err != nil {
			return failure(answer, err)
		}
		objects = append(objects, ObjectContext{
			ID:     entry.ID,
			Type:   entry.Type,
			Schema: SchemaString(cols),
		})
	}

	prompt := BuildPrompt(s.wh.Dataset(), question, objects)
	raw, err := s.gen.GenerateSQL(ctx, prompt)
	if err != nil {
		return failure(answer, err)
	}
	answer.GeneratedSQL = StripFences(raw)

	object, err := ResolveObject(answer.GeneratedSQL, catalog, s.wh.Dataset())
	if err != nil {
		return failure(answer, err)
	}
	answer.IdentifiedObject = object

	result, err := s.wh.Query(ctx, answer.GeneratedSQL)
	if err != nil {
		return failure(answer, err)
	}

	if result.Empty() {
		answer.Type = AnswerText
		answer.Text = "No results were found for your query."
		return answer
	}

	answer.Type = AnswerTable
	answer.Table = result
	return answer
}

// failure shapes an internal error into the text answer contract,
// preserving whatever the flow already established.
func failure(answer *Answer, err error) *Answer {
	answer.Type = AnswerText
	answer.Text = fmt.Sprintf("An error occurred while processing your question: %v", err)
	return answer
}
