package database

import (
	"context"
	"fmt"
	"time"

	"campus-events-backend/constants"
	"campus-events-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RegistrationRepository gère les opérations sur les inscriptions
type RegistrationRepository struct {
	collection *mongo.Collection
}

// NewRegistrationRepository crée une nouvelle instance de RegistrationRepository
func NewRegistrationRepository(db *mongo.Database) *RegistrationRepository {
	return &RegistrationRepository{
		collection: db.Collection(CollectionRegistrations),
	}
}

// Create crée une nouvelle inscription. Retourne ErrDuplicate si (event_id, user_id) existe déjà.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	reg.ID = primitive.NewObjectID()
	reg.RegisteredAt = now
	reg.UpdatedAt = now
	if reg.TeamMembers == nil {
		reg.TeamMembers = models.Roster{}
	}

	_, err := r.collection.InsertOne(ctx, reg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("erreur lors de la création de l'inscription: %w", err)
	}

	return nil
}

func (r *RegistrationRepository) findOne(ctx context.Context, filter bson.M) (*models.Registration, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var reg models.Registration
	err := r.collection.FindOne(ctx, filter).Decode(&reg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'inscription: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) findMany(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Registration, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des inscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	regs := []models.Registration{}
	if err = cursor.All(ctx, &regs); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeRegistrations, err)
	}
	return regs, nil
}

// FindByID recherche une inscription par ID
func (r *RegistrationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEventAndUser recherche l'inscription d'un utilisateur à un événement
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Registration, error) {
	return r.findOne(ctx, bson.M{"event_id": eventID, "user_id": userID})
}

// FindByPaymentIntentID recherche une inscription par identifiant d'intention de paiement
func (r *RegistrationRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Registration, error) {
	return r.findOne(ctx, bson.M{"payment_intent_id": intentID})
}

// FindByUser retourne les inscriptions d'un utilisateur, les plus récentes d'abord
func (r *RegistrationRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}})
	return r.findMany(ctx, bson.M{"user_id": userID}, opts)
}

// FindByEvent retourne toutes les inscriptions d'un événement
func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: 1}})
	return r.findMany(ctx, bson.M{"event_id": eventID}, opts)
}

// FindStalePending retourne les inscriptions en attente créées avant cutoff
func (r *RegistrationRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int64) ([]models.Registration, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "registered_at", Value: 1}})
	return r.findMany(ctx, bson.M{
		"payment_status": models.PaymentPending,
		"registered_at":  bson.M{"$lt": cutoff},
	}, opts)
}

// FindCompletedWithoutReceipt retourne les inscriptions payées dont le reçu n'est pas parti
func (r *RegistrationRepository) FindCompletedWithoutReceipt(ctx context.Context, limit int64) ([]models.Registration, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "registered_at", Value: 1}})
	return r.findMany(ctx, bson.M{
		"payment_status": models.PaymentCompleted,
		"$or": []bson.M{
			{"email_sent": false},
			{"email_sent": bson.M{"$exists": false}},
		},
	}, opts)
}

func (r *RegistrationRepository) set(ctx context.Context, filter bson.M, fields bson.M) (bool, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{BSONSet: fields})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la mise à jour de l'inscription: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// SetPaymentIntent enregistre l'identifiant d'intention de paiement
func (r *RegistrationRepository) SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error {
	_, err := r.set(ctx, bson.M{"_id": id}, bson.M{"payment_intent_id": intentID})
	return err
}

// UpdatePaymentStatus applique une transition seulement si le statut courant vaut from.
// Retourne false si l'inscription a déjà changé d'état entre-temps.
func (r *RegistrationRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, paymentID, failureReason string) (bool, error) {
	fields := bson.M{"payment_status": to}
	if paymentID != "" {
		fields["payment_id"] = paymentID
	}
	if failureReason != "" {
		fields["failure_reason"] = failureReason
	}
	return r.set(ctx, bson.M{"_id": id, "payment_status": from}, fields)
}

// MarkEmailSent positionne le drapeau d'envoi du reçu sans condition
func (r *RegistrationRepository) MarkEmailSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.set(ctx, bson.M{"_id": id}, bson.M{"email_sent": true})
	return err
}

// ClaimNotification positionne le drapeau flag (email_sent ou failure_email_sent) s'il ne l'est pas encore.
// Retourne false si un autre appelant l'a déjà réclamé.
func (r *RegistrationRepository) ClaimNotification(ctx context.Context, id primitive.ObjectID, flag string) (bool, error) {
	return r.set(ctx, bson.M{"_id": id, flag: bson.M{"$ne": true}}, bson.M{flag: true})
}

// ReleaseNotification remet le drapeau à false quand aucun email n'a pu partir
func (r *RegistrationRepository) ReleaseNotification(ctx context.Context, id primitive.ObjectID, flag string) error {
	_, err := r.set(ctx, bson.M{"_id": id}, bson.M{flag: false})
	return err
}

// SetCertificate attache un certificat à l'inscription
func (r *RegistrationRepository) SetCertificate(ctx context.Context, id primitive.ObjectID, certificate *models.StoredObject) error {
	_, err := r.set(ctx, bson.M{"_id": id}, bson.M{"certificate": certificate})
	return err
}

// DeletePending supprime l'inscription uniquement si elle est encore en attente
func (r *RegistrationRepository) DeletePending(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "payment_status": models.PaymentPending})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la suppression de l'inscription: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// CountByEvent compte les inscriptions d'un événement
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des inscriptions: %w", err)
	}
	return count, nil
}

// CountByStatus agrège nombre et montant par statut de paiement (tous événements si eventID est nil)
func (r *RegistrationRepository) CountByStatus(ctx context.Context, eventID *primitive.ObjectID) ([]models.RegistrationStatusCount, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	match := bson.M{}
	if eventID != nil {
		match["event_id"] = *eventID
	}

	pipeline := []bson.M{
		{BSONMatch: match},
		{BSONGroup: bson.M{
			"_id":    "$payment_status",
			"count":  bson.M{BSONSum: 1},
			"amount": bson.M{BSONSum: "$total_fee"},
		}},
		{BSONSort: bson.M{"_id": 1}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.RegistrationStatusCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage de l'agrégation: %w", err)
	}
	return counts, nil
}

// RegistrationWithUser est une inscription enrichie des informations du compte
type RegistrationWithUser struct {
	models.Registration `bson:",inline"`
	User                struct {
		Name  string `json:"name" bson:"name"`
		Email string `json:"email" bson:"email"`
		Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	} `json:"user" bson:"user"`
}

// FindByEventWithUsers retourne les inscriptions d'un événement jointes à leur utilisateur
func (r *RegistrationRepository) FindByEventWithUsers(ctx context.Context, eventID primitive.ObjectID, status models.PaymentStatus) ([]RegistrationWithUser, error) {
	ctx, cancel := withTimeout(ctx, 15*time.Second)
	defer cancel()

	match := bson.M{"event_id": eventID}
	if status != "" {
		match["payment_status"] = status
	}

	pipeline := []bson.M{
		{BSONMatch: match},
		{BSONSort: bson.M{"registered_at": 1}},
		{BSONLookup: bson.M{
			"from":         CollectionUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}},
		{BSONUnwind: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation des inscrits: %w", err)
	}
	defer cursor.Close(ctx)

	results := []RegistrationWithUser{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf(constants.ErrDecodeRegistrations, err)
	}
	return results, nil
}
