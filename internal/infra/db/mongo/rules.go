package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

type RuleRepository struct {
	db       *mongo.Database
	col      *mongo.Collection
	profiles *ProfileRepository
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{db: db, col: db.Collection(colRules), profiles: NewProfileRepository(db)}
}

// ListByProfile returns an empty list for a profile that no longer exists.
func (r *RuleRepository) ListByProfile(ctx context.Context, sc scope.Owner, profileID pricing.ProfileID, enabledOnly bool) ([]pricing.Rule, error) {
	if _, err := r.profiles.ByID(ctx, sc, profileID); err != nil && !errors.Is(err, pricing.ErrProfileNotFound) {
		return nil, err
	}
	filter := bson.M{"profile_id": int64(profileID)}
	if enabledOnly {
		filter["enabled"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	var docs []ruleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.Rule, 0, len(docs))
	for _, doc := range docs {
		rule, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, nil
}

func (r *RuleRepository) ByID(ctx context.Context, sc scope.Owner, id pricing.RuleID) (*pricing.Rule, error) {
	rule, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.profiles.ByID(ctx, sc, rule.ProfileID); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *RuleRepository) Create(ctx context.Context, sc scope.Owner, rule *pricing.Rule) error {
	if _, err := r.profiles.writable(ctx, sc, rule.ProfileID); err != nil {
		return err
	}
	id, err := nextID(ctx, r.db, colRules)
	if err != nil {
		return err
	}
	rule.ID = pricing.RuleID(id)
	doc, err := newRuleDocument(*rule)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		rule.ID = 0
		return errs.Unavailable(err)
	}
	return nil
}

func (r *RuleRepository) Update(ctx context.Context, sc scope.Owner, rule *pricing.Rule) error {
	existing, err := r.find(ctx, rule.ID)
	if err != nil {
		return err
	}
	if _, err := r.profiles.writable(ctx, sc, existing.ProfileID); err != nil {
		return err
	}
	rule.ProfileID = existing.ProfileID
	doc, err := newRuleDocument(*rule)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	return errs.Unavailable(err)
}

func (r *RuleRepository) Delete(ctx context.Context, sc scope.Owner, id pricing.RuleID) error {
	existing, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.profiles.writable(ctx, sc, existing.ProfileID); err != nil {
		return err
	}
	_, err = r.col.DeleteOne(ctx, bson.M{"_id": int64(id)})
	return errs.Unavailable(err)
}

func (r *RuleRepository) find(ctx context.Context, id pricing.RuleID) (*pricing.Rule, error) {
	var doc ruleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pricing.ErrRuleNotFound
		}
		return nil, errs.Unavailable(err)
	}
	return doc.toDomain()
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
