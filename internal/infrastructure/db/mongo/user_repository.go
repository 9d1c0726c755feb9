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

const collectionUsers = "users"

// userDocument stores role memberships as references; the roles field is only
// populated by the $lookup stage on reads.
type userDocument struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	PasswordHash string               `bson:"password_hash"`
	Email        string               `bson:"email,omitempty"`
	FirstName    string               `bson:"first_name,omitempty"`
	LastName     string               `bson:"last_name,omitempty"`
	Enabled      bool                 `bson:"enabled"`
	Locked       bool                 `bson:"locked"`
	RoleIDs      []primitive.ObjectID `bson:"role_ids"`
	Roles        []roleDocument       `bson:"roles,omitempty"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByID treats an id that is not a valid ObjectID as not found.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// Save inserts a user without ID and replaces the stored document otherwise.
// The unique username index turns a concurrent duplicate into ErrUserExists.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toUserDocument(user)
	if err != nil {
		return nil, err
	}

	if doc.ID.IsZero() {
		res, err := r.col.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUserExists
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		doc.ID = res.InsertedID.(primitive.ObjectID)
	} else {
		_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUserExists
			}
			return nil, fmt.Errorf("replace user: %w", err)
		}
	}

	saved := user.Clone()
	saved.ID = doc.ID.Hex()
	return saved, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, userPipeline(bson.M{}, 0))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates the unique username index the register flow relies on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, userPipeline(filter, 1))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("find user: %w", err)
		}
		return nil, domain.ErrUserNotFound
	}

	var doc userDocument
	if err := cur.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return doc.toDomain(), nil
}

// userPipeline matches users and joins their roles. limit <= 0 means no limit.
func userPipeline(match bson.M, limit int64) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "username", Value: 1}}}},
	}
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	return append(p, bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: collectionRoles},
		{Key: "localField", Value: "role_ids"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "roles"},
	}}})
}

func toUserDocument(u *domain.User) (userDocument, error) {
	doc := userDocument{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Enabled:      u.Enabled,
		Locked:       u.Locked,
		RoleIDs:      make([]primitive.ObjectID, 0, len(u.Roles)),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.ID != "" {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return doc, fmt.Errorf("user id %q: %w", u.ID, err)
		}
		doc.ID = oid
	}
	for _, role := range u.Roles.Slice() {
		oid, err := primitive.ObjectIDFromHex(role.ID)
		if err != nil {
			return doc, errors.Join(fmt.Errorf("role %q has no stored id", role.Name), err)
		}
		doc.RoleIDs = append(doc.RoleIDs, oid)
	}
	return doc, nil
}

func (d *userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Enabled:      d.Enabled,
		Locked:       d.Locked,
		Roles:        domain.NewRoleSet(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	for _, rd := range d.Roles {
		u.Roles.Add(rd.toDomain())
	}
	return u
}
