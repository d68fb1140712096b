package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zedline/auth-service/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	userIDCounter      = "user_id"
)

type MongoUserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID           uint64 `bson:"_id"`
	Username     string `bson:"username"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes guarding username and email.
// Call once at startup; index creation is idempotent.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// nextID allocates the next numeric user ID from an atomic counter document.
func (r *MongoUserRepository) nextID(ctx context.Context) (uint64, error) {
	var counter struct {
		Seq uint64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userIDCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := mongoUser{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         roleField(user.Role),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Raced past the service-level existence check; the index name in
			// the write error tells us which field collided.
			if strings.Contains(err.Error(), "uniq_email") {
				return nil, domain.ErrEmailTaken
			}
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id uint64) (*domain.User, string, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByUsernameOrEmail(ctx context.Context, value string) (*domain.User, string, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": value},
		bson.M{"email": value},
	}})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, string, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	return toDomain(&mu), mu.PasswordHash, nil
}

func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) UsernamesByIDs(ctx context.Context, ids []uint64) ([]string, error) {
	cursor, err := r.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"username": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find usernames: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[uint64]string, len(ids))
	for cursor.Next(ctx) {
		var doc struct {
			ID       uint64 `bson:"_id"`
			Username string `bson:"username"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode username: %w", err)
		}
		byID[doc.ID] = doc.Username
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}

	usernames := make([]string, 0, len(ids))
	for _, id := range ids {
		username, ok := byID[id]
		if !ok {
			return nil, domain.ErrUserNotFound
		}
		usernames = append(usernames, username)
	}
	return usernames, nil
}

func (r *MongoUserRepository) UpdateUsername(ctx context.Context, id uint64, username string) error {
	return r.update(ctx, id, bson.M{"username": username})
}

func (r *MongoUserRepository) UpdatePasswordHash(ctx context.Context, id uint64, passwordHash string) error {
	return r.update(ctx, id, bson.M{"password_hash": passwordHash})
}

func (r *MongoUserRepository) update(ctx context.Context, id uint64, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC().Unix()
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func toDomain(mu *mongoUser) *domain.User {
	// Users without an explicit role record default to USER.
	role, err := domain.ParseRole(mu.Role)
	if err != nil {
		role = domain.RoleUser
	}
	return &domain.User{
		ID:        mu.ID,
		Username:  mu.Username,
		Email:     mu.Email,
		Role:      role,
		CreatedAt: unixToTime(mu.CreatedAt),
		UpdatedAt: unixToTime(mu.UpdatedAt),
	}
}

// roleField omits the default role from storage so that documents written
// before roles existed and new USER documents look the same.
func roleField(role domain.Role) string {
	if role == domain.RoleUser {
		return ""
	}
	return string(role)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
