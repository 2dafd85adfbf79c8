package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)

	p = NewPagination(2, 1000, 450)
	assert.Equal(t, 200, p.PerPage)
	assert.Equal(t, 3, p.TotalPages)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
	assert.Equal(t, 0, Offset(-1, 0))
}

func TestActorContext(t *testing.T) {
	assert.Equal(t, Actor{}, ActorFromContext(context.Background()))
	ctx := ContextWithActor(context.Background(), Actor{ID: 7, Name: "ops"})
	assert.Equal(t, int64(7), ActorFromContext(ctx).ID)
}
