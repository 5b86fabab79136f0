// Package audit provides audit field enrichment for documents.
package audit

import (
	"context"

	appctx "ordercore/internal/core/context"
)

// CreatedBySetter is implemented by entities embedding entity.BaseDocument.
type CreatedBySetter interface {
	SetCreatedBy(string)
}

// UpdatedBySetter is implemented by entities embedding entity.BaseDocument.
type UpdatedBySetter interface {
	SetUpdatedBy(string)
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the request user.
// Use in BeforeCreate hooks. Anonymous requests leave the fields untouched.
func EnrichCreatedBy[T CreatedBySetter](ctx context.Context, e T) error {
	if userID := appctx.GetUserID(ctx); userID != "" {
		e.SetCreatedBy(userID)
	}
	return nil
}

// EnrichUpdatedBy sets UpdatedBy from the request user.
// Use in BeforeUpdate hooks.
func EnrichUpdatedBy[T UpdatedBySetter](ctx context.Context, e T) error {
	if userID := appctx.GetUserID(ctx); userID != "" {
		e.SetUpdatedBy(userID)
	}
	return nil
}
