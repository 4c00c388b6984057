package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/pkg/database"
)

type edgeTable struct {
	subjectCol string
	objectCol  string
	model      func() interface{}
	edge       func(subjectID, objectID string) interface{}
}

var edgeTables = map[domain.RelationKind]edgeTable{
	domain.RelationFavorite: {
		subjectCol: "user_id",
		objectCol:  "article_id",
		model:      func() interface{} { return &domain.FavoriteModel{} },
		edge: func(subjectID, objectID string) interface{} {
			return &domain.FavoriteModel{UserID: subjectID, ArticleID: objectID}
		},
	},
	domain.RelationFollow: {
		subjectCol: "follower_id",
		objectCol:  "following_id",
		model:      func() interface{} { return &domain.FollowModel{} },
		edge: func(subjectID, objectID string) interface{} {
			return &domain.FollowModel{FollowerID: subjectID, FollowingID: objectID}
		},
	},
}

// GormRelationGraph implements RelationGraph using GORM. Each edge set is a
// table with a unique index over (subject, object).
type GormRelationGraph struct {
	db *gorm.DB
}

// NewGormRelationGraph creates a new GORM-based relation graph.
func NewGormRelationGraph(db *gorm.DB) *GormRelationGraph {
	return &GormRelationGraph{db: db}
}

func (r *GormRelationGraph) table(kind domain.RelationKind) (edgeTable, error) {
	t, ok := edgeTables[kind]
	if !ok {
		return edgeTable{}, ErrUnknownRelation
	}
	return t, nil
}

// Add inserts the edge. An existing edge is left as is.
func (r *GormRelationGraph) Add(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) error {
	t, err := r.table(kind)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(t.edge(subjectID, objectID)).Error
	if err != nil && !database.IsUniqueViolation(err) {
		return err
	}
	return nil
}

// Remove deletes the edge if present.
func (r *GormRelationGraph) Remove(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) error {
	t, err := r.table(kind)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" = ?", subjectID, objectID).
		Delete(t.model()).Error
}

// Exists reports whether the edge is present.
func (r *GormRelationGraph) Exists(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) (bool, error) {
	t, err := r.table(kind)
	if err != nil {
		return false, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(t.model()).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" = ?", subjectID, objectID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountSubjects counts the edges pointing at objectID.
func (r *GormRelationGraph) CountSubjects(ctx context.Context, kind domain.RelationKind, objectID string) (int64, error) {
	t, err := r.table(kind)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(t.model()).
		Where(t.objectCol+" = ?", objectID).
		Count(&count).Error
	return count, err
}

var _ RelationGraph = (*GormRelationGraph)(nil)
