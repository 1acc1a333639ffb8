/*
prompt.go - Prompt construction for SQL generation

PURPOSE:
  Builds the grounding prompt sent to the generative model: the dataset
  name, every catalog object with its schema, and the user's question.
  The model is instructed to answer with bare SQL only; any fences it
  adds anyway are stripped before resolution.
*/
package nlsql

import (
	"fmt"
	"strings"

	"github.com/warp/forecast-portal/warehouse"
)

// ObjectContext is one catalog object rendered into the prompt.
type ObjectContext struct {
	ID     string
	Type   string
	Schema string // "name: TYPE, name: TYPE, ..."
}

// SchemaString renders columns into the "name: TYPE" list used in the
// prompt context.
func SchemaString(cols []warehouse.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s: %s", c.Name, c.Type)
	}
	return strings.Join(parts, ", ")
}

// BuildPrompt assembles the full generation prompt.
func BuildPrompt(dataset, question string, objects []ObjectContext) string {
	var ctx strings.Builder
	for _, o := range objects {
		fmt.Fprintf(&ctx, "Object: %s (Type: %s, Schema: %s)\n", o.ID, o.Type, o.Schema)
	}

	return fmt.Sprintf(`Considering the warehouse dataset '%s', which contains the following objects (tables and views) with their respective schemas:
%s
Generate a SQL query to answer the following question: '%s'.
The query must automatically select the most relevant object (table or view) from the dataset based on the question and the schemas provided.
Make sure the SQL query is valid and executable.
Respond ONLY with the SQL code, without explanations, additional formatting (such as `+"```sql"+`) or introductory text.`,
		dataset, ctx.String(), question)
}

// StripFences removes markdown code fences the model sometimes wraps
// around the SQL despite instructions.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
