package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

type UnitRepository struct {
	col *mongo.Collection
}

func NewUnitRepository(db *mongo.Database) *UnitRepository {
	return &UnitRepository{col: db.Collection(colUnits)}
}

func (r *UnitRepository) ByID(ctx context.Context, sc scope.Owner, id units.UnitID) (*units.Unit, error) {
	var doc unitDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, units.ErrUnitNotFound
		}
		return nil, errs.Unavailable(err)
	}
	if !sc.Owns(doc.OwnerID) {
		return nil, units.ErrUnitForbidden
	}
	return doc.toDomain()
}

func (r *UnitRepository) SetDynamicPricing(ctx context.Context, sc scope.Owner, id units.UnitID, enabled bool) error {
	if _, err := r.ByID(ctx, sc, id); err != nil {
		return err
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": int64(id)}, bson.M{"$set": bson.M{"dynamic_pricing_enabled": enabled}})
	return errs.Unavailable(err)
}

func (r *UnitRepository) SetDynamicPricingAll(ctx context.Context, sc scope.Owner, enabled bool) (int64, error) {
	res, err := r.col.UpdateMany(ctx, ownerFilter(sc), bson.M{"$set": bson.M{"dynamic_pricing_enabled": enabled}})
	if err != nil {
		return 0, errs.Unavailable(err)
	}
	return res.MatchedCount, nil
}

func (r *UnitRepository) CountByProfile(ctx context.Context, sc scope.Owner) (map[int64]int, error) {
	match := ownerFilter(sc)
	match["pricing_profile_id"] = bson.M{"$gt": 0}
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$pricing_profile_id"}, {Key: "n", Value: bson.M{"$sum": 1}}}}},
	})
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	var rows []struct {
		ProfileID int64 `bson:"_id"`
		N         int   `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.Unavailable(err)
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.ProfileID] = row.N
	}
	return counts, nil
}

// PutUnit inserts or replaces a unit; a zero ID is assigned. Units are owned by the back
// office, so this exists for fixtures and tests.
func (r *UnitRepository) PutUnit(ctx context.Context, u *units.Unit) error {
	if u.ID == 0 {
		id, err := nextID(ctx, r.col.Database(), colUnits)
		if err != nil {
			return err
		}
		u.ID = units.UnitID(id)
	}
	doc, err := newUnitDocument(*u)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return errs.Unavailable(err)
}

func ownerFilter(sc scope.Owner) bson.M {
	if !sc.Scoped() {
		return bson.M{}
	}
	return bson.M{"owner_id": sc.ID()}
}

var _ units.Store = (*UnitRepository)(nil)
