package catalog_repo

import (
	"context"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/tenant"
)

func requireTenant(ctx context.Context) (string, error) {
	t, err := tenant.Require(ctx)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return string(t), nil
}
