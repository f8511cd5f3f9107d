package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-events-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository gère les opérations sur les utilisateurs
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository crée une nouvelle instance de UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(CollectionUsers),
	}
}

// Create crée un nouvel utilisateur. Retourne ErrDuplicate si l'email existe déjà.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("erreur lors de la création de l'utilisateur: %w", err)
	}

	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'utilisateur: %w", err)
	}

	return &user, nil
}

// FindByEmail recherche un utilisateur par email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByID recherche un utilisateur par ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// UpdateFields met à jour des champs précis d'un utilisateur
func (r *UserRepository) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'utilisateur: %w", err)
	}
	return nil
}

// SetOTP enregistre le hash du code OTP et son expiration
func (r *UserRepository) SetOTP(ctx context.Context, id primitive.ObjectID, otpHash string, expires time.Time) error {
	return r.UpdateFields(ctx, id, bson.M{"otp": otpHash, "otp_expires": expires})
}

// MarkVerified valide le compte et efface le code OTP
func (r *UserRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			BSONSet:  bson.M{"is_verified": true, "updated_at": time.Now()},
			"$unset": bson.M{"otp": "", "otp_expires": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("erreur lors de la validation du compte: %w", err)
	}
	return nil
}

// FindAdmins retourne tous les administrateurs
func (r *UserRepository) FindAdmins(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{"role": models.RoleAdmin}, 0, 0)
}

// FindAll retourne les utilisateurs paginés, les plus récents d'abord
func (r *UserRepository) FindAll(ctx context.Context, skip, limit int64) ([]models.User, error) {
	return r.find(ctx, bson.M{}, skip, limit)
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des utilisateurs: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des utilisateurs: %w", err)
	}
	return users, nil
}

// CountAll compte tous les utilisateurs
func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des utilisateurs: %w", err)
	}
	return count, nil
}
