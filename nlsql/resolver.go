/*
resolver.go - Table-name resolution for generated SQL

PURPOSE:
  Extracts the single table/view name a generated SQL string targets
  and validates it against the live catalog before the query is allowed
  to run. Generated SQL is not guaranteed to be well-formed or confined
  to a known object, so nothing executes until the target resolves.

ALGORITHM:
  1. Pattern-match the first FROM <identifier> clause. The identifier
     may be backtick-quoted and may carry up to two dotted qualifier
     segments (project.dataset.table); the innermost unqualified name
     is taken.
  2. If no direct match, look for a SELECT ... FROM (<subquery>)
     wrapper and run the same pattern match inside the subquery body.
  3. Still no match: ErrObjectNotIdentified.
  4. Compare the candidate case-insensitively against every catalog
     id; no match: ObjectNotFoundError.
  5. On success return the catalog's original casing.

KNOWN LIMITATIONS:
  This is a bounded heuristic, not a SQL parser. It does not handle
  CTEs, multiple FROM clauses, UNIONs, or comments containing the word
  FROM; the first FROM wins. Queries more complex than the single-table
  and one-level-subquery shapes are rejected rather than risk resolving
  to the wrong or a non-existent object.
*/
package nlsql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/warp/forecast-portal/warehouse"
)

// ErrObjectNotIdentified is returned when no table or view name can be
// extracted from the generated SQL.
var ErrObjectNotIdentified = errors.New("object not identified")

// ErrObjectNotFound is returned when the extracted name does not match
// any catalog object. Use with errors.Is(); ObjectNotFoundError carries
// the details.
var ErrObjectNotFound = errors.New("object not found in dataset")

// ObjectNotFoundError reports a candidate name missing from the catalog.
type ObjectNotFoundError struct {
	Name    string
	Dataset string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("table or view %q not found in dataset %q", e.Name, e.Dataset)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

var (
	// First FROM clause; identifier optionally backtick-quoted with up
	// to two dotted qualifier segments. The capture group is the
	// innermost unqualified name.
	fromPattern = regexp.MustCompile("(?i)FROM\\s+`?(?:`?\\w+`?\\.)?`?(?:`?\\w+`?\\.)?`?(\\w+)`?")

	// SELECT ... FROM (<subquery>) wrapper; the capture group is the
	// subquery body.
	subqueryPattern = regexp.MustCompile(`(?is)SELECT\s+.*?\s+FROM\s+\((.*?)\)`)
)

// ExtractObjectName pulls the candidate table/view name out of a SQL
// string, falling back to a one-level subquery body.
func ExtractObjectName(sqlStr string) (string, error) {
	if m := fromPattern.FindStringSubmatch(sqlStr); m != nil {
		return m[1], nil
	}
	if sub := subqueryPattern.FindStringSubmatch(sqlStr); sub != nil {
		if m := fromPattern.FindStringSubmatch(sub[1]); m != nil {
			return m[1], nil
		}
	}
	return "", ErrObjectNotIdentified
}

// ResolveObject extracts the candidate name and validates it against
// the catalog, returning the matched entry's id in its original casing.
func ResolveObject(sqlStr string, catalog []warehouse.CatalogEntry, dataset string) (string, error) {
	name, err := ExtractObjectName(sqlStr)
	if err != nil {
		return "", err
	}
	for _, entry := range catalog {
		if strings.EqualFold(entry.ID, name) {
			return entry.ID, nil
		}
	}
	return "", &ObjectNotFoundError{Name: name, Dataset: dataset}
}
