package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/primar/console/internal/core/domain"
)

const rolesCollection = "user_roles"

// RoleRepository keys documents by user id, so a user holds at most one role.
type RoleRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		col: db.Collection(rolesCollection),
		now: domain.Now,
	}
}

type roleDoc struct {
	UserID    string      `bson:"_id"`
	Role      domain.Role `bson:"role"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

func (r *RoleRepository) FindByUserID(ctx context.Context, userID string) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RoleNone, domain.ErrRoleNotFound
		}
		return domain.RoleNone, domain.WrapPersistence("find role", err)
	}
	return doc.Role, nil
}

func (r *RoleRepository) ListByRole(ctx context.Context, roles ...domain.Role) (map[string]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"role": bson.M{"$in": roles}})
	if err != nil {
		return nil, domain.WrapPersistence("list roles", err)
	}
	defer cursor.Close(ctx)

	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.WrapPersistence("decode roles", err)
	}
	out := make(map[string]domain.Role, len(docs))
	for _, d := range docs {
		out[d.UserID] = d.Role
	}
	return out, nil
}

func (r *RoleRepository) Assign(ctx context.Context, userID string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := roleDoc{UserID: userID, Role: role, UpdatedAt: r.now()}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return domain.WrapPersistence("assign role", err)
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return domain.WrapPersistence("delete role", err)
	}
	return nil
}

func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "role", Value: 1}}})
	return err
}
