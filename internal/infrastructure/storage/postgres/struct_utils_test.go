package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"distribuidora/internal/core/entity"
	"distribuidora/internal/core/id"
	"distribuidora/internal/core/tenant"
)

type mockRow struct {
	entity.BaseEntity
	Name    string `db:"name" json:"name"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_EmbeddedBase(t *testing.T) {
	cols := ExtractDBColumns[mockRow]()

	assert.Equal(t, []string{"id", "tenant", "version", "created_at", "updated_at", "name"}, cols)
}

func TestStructToMap_EmbeddedBase(t *testing.T) {
	row := mockRow{
		BaseEntity: entity.NewBaseEntity(tenant.Lazaro),
		Name:       "COCA 600ML",
		Ignored:    "x",
	}
	row.Version = 5

	m := StructToMap(&row)

	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, tenant.Lazaro, m["tenant"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "COCA 600ML", m["name"])
	assert.NotContains(t, m, "Ignored")
	assert.NotContains(t, m, "NoTag")
	assert.Len(t, m, 6)
	assert.False(t, id.IsNil(row.ID))
}
