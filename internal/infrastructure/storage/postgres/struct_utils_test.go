package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ordercore/internal/core/entity"
	"ordercore/internal/core/id"
)

type sampleDocument struct {
	entity.BaseDocument
	Number  string   `db:"number"`
	Status  string   `db:"status"`
	Lines   []string `db:"-"`
	Comment string
}

func TestExtractDBColumnsFlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[sampleDocument]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at", "created_by", "updated_by", "number", "status",
	}, cols)
	assert.Equal(t, cols, ExtractDBColumns[*sampleDocument]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	doc := &sampleDocument{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{ID: id.New(), Version: 5},
			CreatedAt:  now,
			CreatedBy:  "u-1",
		},
		Number:  "SO-2026-00001",
		Status:  "draft",
		Lines:   []string{"ignored"},
		Comment: "ignored",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "u-1", m["created_by"])
	assert.Equal(t, "SO-2026-00001", m["number"])
	assert.NotContains(t, m, "Lines")
	assert.Len(t, m, 8)

	assert.Nil(t, StructToMap((*sampleDocument)(nil)))
	assert.Nil(t, StructToMap(42))
}

func TestPickColumns(t *testing.T) {
	data := map[string]any{"id": 1, "number": "X", "version": 2, "extra": true}

	got := PickColumns(data, []string{"id", "number", "version", "missing"}, "version")

	assert.Equal(t, map[string]any{"id": 1, "number": "X"}, got)
}
