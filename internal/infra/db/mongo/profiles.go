package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

type ProfileRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{db: db, col: db.Collection(colProfiles)}
}

func (r *ProfileRepository) List(ctx context.Context, sc scope.Owner) ([]pricing.Profile, error) {
	filter := bson.M{}
	if sc.Scoped() {
		filter["owner_id"] = bson.M{"$in": []int64{0, sc.ID()}}
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	var docs []profileDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	pricing.SortProfiles(out)
	return out, nil
}

func (r *ProfileRepository) ByID(ctx context.Context, sc scope.Owner, id pricing.ProfileID) (*pricing.Profile, error) {
	p, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.CanRead(p.OwnerID) {
		return nil, pricing.ErrProfileForbidden
	}
	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, sc scope.Owner, p *pricing.Profile) error {
	if !sc.Owns(p.OwnerID) {
		return pricing.ErrProfileForbidden
	}
	id, err := nextID(ctx, r.db, colProfiles)
	if err != nil {
		return err
	}
	p.ID = pricing.ProfileID(id)
	doc, err := newProfileDocument(*p)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		p.ID = 0
		return errs.Unavailable(err)
	}
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, sc scope.Owner, p *pricing.Profile) error {
	existing, err := r.writable(ctx, sc, p.ID)
	if err != nil {
		return err
	}
	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	doc, err := newProfileDocument(*p)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	return errs.Unavailable(err)
}

func (r *ProfileRepository) Delete(ctx context.Context, sc scope.Owner, id pricing.ProfileID) error {
	if _, err := r.writable(ctx, sc, id); err != nil {
		return err
	}
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": int64(id)}); err != nil {
		return errs.Unavailable(err)
	}
	if _, err := r.db.Collection(colRules).DeleteMany(ctx, bson.M{"profile_id": int64(id)}); err != nil {
		return errs.Unavailable(err)
	}
	_, err := r.db.Collection(colUnits).UpdateMany(ctx,
		bson.M{"pricing_profile_id": int64(id)},
		bson.M{"$unset": bson.M{"pricing_profile_id": ""}})
	return errs.Unavailable(err)
}

func (r *ProfileRepository) find(ctx context.Context, id pricing.ProfileID) (*pricing.Profile, error) {
	var doc profileDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pricing.ErrProfileNotFound
		}
		return nil, errs.Unavailable(err)
	}
	return doc.toDomain()
}

func (r *ProfileRepository) writable(ctx context.Context, sc scope.Owner, id pricing.ProfileID) (*pricing.Profile, error) {
	p, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.Owns(p.OwnerID) {
		return nil, pricing.ErrProfileForbidden
	}
	return p, nil
}

var _ pricing.ProfileRepository = (*ProfileRepository)(nil)
