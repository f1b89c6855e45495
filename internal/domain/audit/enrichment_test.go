package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appctx "distribuidora/internal/core/context"
)

func TestEnrichActor(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		Username:    "jlopez",
		DisplayName: "Juan Lopez",
	})

	empty := ""
	EnrichActor(ctx, &empty)
	assert.Equal(t, "JUAN LOPEZ", empty)

	given := " maria "
	EnrichActor(ctx, &given)
	assert.Equal(t, "MARIA", given)

	assert.Equal(t, "", Actor(context.Background()))
	EnrichActor(ctx, nil)
}
