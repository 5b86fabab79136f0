// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/domain"
	"ordercore/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides header CRUD for a document table whose struct
// carries "db" tags. Updates are compare-and-swap on the version column.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	selectCols []string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](txManager *postgres.TxManager, tableName string, selectCols []string) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		selectCols: selectCols,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insert writes every selectable column of entity.
func (r *BaseDocumentRepo[T]) insert(ctx context.Context, entity T) error {
	data := postgres.PickColumns(postgres.StructToMap(entity), r.selectCols)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// updateCAS writes mutable columns when the stored version equals the
// entity's version and returns the new version.
func (r *BaseDocumentRepo[T]) updateCAS(ctx context.Context, entity T, entityID id.ID, version int) (int, error) {
	data := postgres.PickColumns(postgres.StructToMap(entity), r.selectCols,
		"id", "created_at", "created_by", "version")

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID, "version": version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var next int
	if err := pgxscan.Get(ctx, r.querier(ctx), &next, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewConcurrentModification("document", entityID)
		}
		return 0, postgres.TranslateConflict(fmt.Errorf("update %s: %w", r.tableName, err), "document", entityID)
	}
	return next, nil
}

// get loads one header into dest.
func (r *BaseDocumentRepo[T]) get(ctx context.Context, dest T, entityID id.ID) error {
	sql, args, err := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound("document", entityID.String())
		}
		return fmt.Errorf("get by id: %w", err)
	}
	return nil
}

// page counts and fetches one page of headers matching where.
func (r *BaseDocumentRepo[T]) page(
	ctx context.Context,
	where squirrel.Sqlizer,
	filter domain.ListFilter,
	sortable map[string]string,
	fallback string,
) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}
	q := r.querier(ctx)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").From(r.tableName).Where(where).ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	column, desc := filter.SortColumn(sortable, fallback)
	order := column + " ASC"
	if desc {
		order = column + " DESC"
	}

	sql, args, err := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(where).
		OrderBy(order, "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, q, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}
