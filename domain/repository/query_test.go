package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_Conditions(t *testing.T) {
	q := Build(WithID("a"), WithIDIn([]string{"b", "c"}), WithEmbeddingModel("text-embedding-004"))

	conds := q.Conditions()
	assert.Len(t, conds, 3)
	assert.Equal(t, "id = a", conds[0].String())
	assert.True(t, conds[1].In())
	assert.Equal(t, "embedding_model", conds[2].Field())
}

func TestBuild_Pagination(t *testing.T) {
	q := Build(append(WithPagination(20, 40), WithOrderDesc("updated_at"))...)

	assert.Equal(t, 20, q.LimitValue())
	assert.Equal(t, 40, q.OffsetValue())
	assert.Len(t, q.Orders(), 1)
	assert.False(t, q.Orders()[0].Ascending())
}

func TestConditions_ReturnsCopy(t *testing.T) {
	q := Build(WithID("a"))
	conds := q.Conditions()
	conds[0] = Condition{field: "other"}

	assert.Equal(t, "id", q.Conditions()[0].Field())
}

func TestNullConditions(t *testing.T) {
	q := Build(WithEmbeddingMissing(), WithNotNull("embedding_model"), WithID("a"))
	conds := q.Conditions()

	isNull, ok := conds[0].Null()
	assert.True(t, ok)
	assert.True(t, isNull)
	assert.Equal(t, "embedding IS NULL", conds[0].String())

	isNull, ok = conds[1].Null()
	assert.True(t, ok)
	assert.False(t, isNull)
	assert.Equal(t, "embedding_model IS NOT NULL", conds[1].String())

	_, ok = conds[2].Null()
	assert.False(t, ok)
}
