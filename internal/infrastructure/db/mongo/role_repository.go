package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

const collectionRoles = "roles"

type roleDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
}

func (d roleDocument) toDomain() domain.Role {
	return domain.Role{ID: d.ID.Hex(), Name: d.Name, Description: d.Description}
}

type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles)}
}

// FindByName retrieves a role by its exact name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDocument
	err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	role := doc.toDomain()
	return &role, nil
}

func (r *RoleRepository) Save(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := roleDocument{Name: role.Name, Description: role.Description}
	if role.ID == "" {
		res, err := r.col.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrRoleExists
			}
			return nil, fmt.Errorf("insert role: %w", err)
		}
		doc.ID = res.InsertedID.(primitive.ObjectID)
	} else {
		oid, err := primitive.ObjectIDFromHex(role.ID)
		if err != nil {
			return nil, fmt.Errorf("role id %q: %w", role.ID, err)
		}
		doc.ID = oid
		if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc, options.Replace().SetUpsert(true)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrRoleExists
			}
			return nil, fmt.Errorf("replace role: %w", err)
		}
	}

	saved := doc.toDomain()
	return &saved, nil
}

// EnsureIndexes creates a unique index on the role name.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
