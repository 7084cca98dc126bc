package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/store/schema"
)

type gormStore struct {
	db     *gorm.DB
	broker *Broker
}

// NewGormStore creates a document store on a SQL database.
// Postgres and SQLite are supported; the documents table must exist (see Migrate).
func NewGormStore(db *gorm.DB, broker *Broker) Store {
	return &gormStore{db: db, broker: broker}
}

// Migrate creates or updates the documents table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schema.Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

// unavailable wraps a database failure so callers can match domain.ErrStoreUnavailable
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
}

func (s *gormStore) isPostgres() bool {
	return s.db.Dialector.Name() == "postgres"
}

// fieldExpr returns the SQL expression extracting a top-level JSON field as text
func (s *gormStore) fieldExpr(field string) string {
	if s.isPostgres() {
		return fmt.Sprintf("data ->> '%s'", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

func (s *gormStore) Add(ctx context.Context, collection string, data any) (string, error) {
	body, err := encodeDocument(data)
	if err != nil {
		return "", err
	}

	doc := schema.Document{
		Collection: collection,
		ID:         ulid.MustNewDefault(time.Now()).String(),
		Data:       body,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", unavailable("add document", err)
	}

	s.broker.Changed(ctx, collection)
	return doc.ID, nil
}

func (s *gormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc schema.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get document", err)
	}

	result := toDocument(doc)
	return &result, nil
}

func (s *gormStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	encoded, err := marshalFields(fields)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc schema.Document
		q := tx.Where("collection = ? AND id = ?", collection, id)
		if s.isPostgres() {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&doc).Error; err != nil {
			return err
		}

		merged, err := mergeDocument(doc.Data, encoded)
		if err != nil {
			return err
		}

		return tx.Model(&schema.Document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{
				"data":       merged,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return unavailable("update document", err)
	}

	s.broker.Changed(ctx, collection)
	return nil
}

func (s *gormStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&schema.Document{}).Error
	if err != nil {
		return unavailable("delete document", err)
	}

	s.broker.Changed(ctx, collection)
	return nil
}

func (s *gormStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		tx = tx.Where(s.fieldExpr(f.Field)+" = ?", f.Value)
	}
	if q.OrderBy != nil {
		tx = tx.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: s.fieldExpr(q.OrderBy.Field), Raw: true}, Desc: q.OrderBy.Desc},
			{Column: clause.Column{Name: "id"}, Desc: q.OrderBy.Desc},
		}})
	} else {
		tx = tx.Order("id")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []schema.Document
	if err := tx.Find(&rows).Error; err != nil {
		return nil, unavailable("query documents", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toDocument(row))
	}
	return docs, nil
}

func (s *gormStore) Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.broker.subscribe(ctx, q.Collection, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, q)
	}, fn)
}

// Close stops snapshot delivery and closes the database connection
func (s *gormStore) Close() error {
	s.broker.Close()

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func toDocument(row schema.Document) Document {
	return Document{
		ID:         row.ID,
		Collection: row.Collection,
		Data:       []byte(row.Data),
		CreateTime: row.CreatedAt,
		UpdateTime: row.UpdatedAt,
	}
}
