package sqlxrepos

import (
	"testing"

	"github.com/trezcool/shule/core"
)

func Test_orderByClause(t *testing.T) {
	orderable := orderableColumns(`id, title, created_at, password_hash`, "password_hash")

	tests := []struct {
		name      string
		orderings []core.DBOrdering
		want      string
	}{
		{name: "no orderings fall back to the default", want: " ORDER BY created_at, id"},
		{
			name:      "known columns pass",
			orderings: []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "created_at"}},
			want:      " ORDER BY title ASC, created_at DESC",
		},
		{
			name:      "unknown fields are dropped",
			orderings: []core.DBOrdering{{Field: "nope", Ascending: true}, {Field: "id", Ascending: true}},
			want:      " ORDER BY id ASC",
		},
		{
			name:      "excluded columns are dropped",
			orderings: []core.DBOrdering{{Field: "password_hash", Ascending: true}},
			want:      " ORDER BY created_at, id",
		},
		{
			name:      "sql fragments never reach the clause",
			orderings: []core.DBOrdering{{Field: `(SELECT password_hash FROM "user" LIMIT 1)`, Ascending: true}},
			want:      " ORDER BY created_at, id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderByClause(tt.orderings, orderable, "created_at, id"); got != tt.want {
				t.Errorf("orderByClause() = %q, want %q", got, tt.want)
			}
		})
	}
}
