package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

type LogRepository struct {
	col *mongo.Collection
}

func NewLogRepository(db *mongo.Database) *LogRepository {
	return &LogRepository{col: db.Collection(colLogs)}
}

// Upsert relies on the unique (unit_id, date) index. original_price is only written on insert.
func (r *LogRepository) Upsert(ctx context.Context, log pricing.CalculationLog) error {
	original, err := toDecimal128(log.OriginalPrice)
	if err != nil {
		return err
	}
	final, err := toDecimal128(log.FinalPrice)
	if err != nil {
		return err
	}
	trace, err := newTraceDocuments(log.AppliedRules)
	if err != nil {
		return err
	}
	filter := bson.M{"unit_id": int64(log.UnitID), "date": daterange.Day(log.Date)}
	update := bson.M{
		"$set": bson.M{
			"final_price":        final,
			"applied_rules":      trace,
			"calculation_source": string(log.Source),
			"calculated_at":      log.CalculatedAt.UTC(),
		},
		"$setOnInsert": bson.M{"original_price": original},
	}
	_, err = r.col.UpdateOne(ctx, filter, update, upsert())
	return errs.Unavailable(err)
}

func (r *LogRepository) List(ctx context.Context, unitID units.UnitID, filter pricing.LogFilter) ([]pricing.CalculationLog, error) {
	q := bson.M{"unit_id": int64(unitID)}
	if filter.Date != nil {
		q["date"] = daterange.Day(*filter.Date)
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "calculated_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	var docs []logDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.CalculationLog, 0, len(docs))
	for _, doc := range docs {
		log, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}

var _ pricing.LogRepository = (*LogRepository)(nil)
