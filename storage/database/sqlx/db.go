// Package sqlxrepos provides postgres-backed implementations of the
// domain repositories, built on sqlx and lib/pq.
package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/trezcool/shule/core"
)

// matchNothing is appended when a filter's None flag is set so that the
// query returns an empty set instead of everything.
const matchNothing = "FALSE"

// queryArgs accumulates positional arguments while building a WHERE clause.
type queryArgs []interface{}

func (qa *queryArgs) bind(v interface{}) string {
	*qa = append(*qa, v)
	return fmt.Sprintf("$%d", len(*qa))
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// orderableColumns derives the sortable column set from a SELECT column list.
func orderableColumns(columns string, exclude ...string) map[string]bool {
	set := make(map[string]bool)
	for _, col := range strings.Split(columns, ", ") {
		set[col] = true
	}
	for _, col := range exclude {
		delete(set, col)
	}
	return set
}

// orderByClause renders the orderings, falling back to a stable default.
// Ordering fields come straight from the request's "ordering" param and are
// concatenated into the SQL string, so anything not in the orderable column
// set is dropped.
func orderByClause(orderings []core.DBOrdering, orderable map[string]bool, dflt string) string {
	strs := make([]string, 0, len(orderings))
	for _, o := range orderings {
		if orderable[o.Field] {
			strs = append(strs, o.String())
		}
	}
	if len(strs) == 0 {
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(strs, ", ")
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
}

func isFKViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "23503" && (constraint == "" || pqErr.Constraint == constraint)
}
