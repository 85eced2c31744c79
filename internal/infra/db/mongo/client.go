package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentpricing/internal/domain/shared/errs"
)

const (
	colUnits    = "units"
	colBookings = "bookings"
	colProfiles = "pricing_profiles"
	colRules    = "pricing_rules"
	colLogs     = "price_calculation_logs"
	colCounters = "counters"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return errs.Unavailable(c.DB.Client().Ping(ctx, nil))
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. The unique (unit_id, date)
// index is what makes the log upsert a single atomic statement.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUnits: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "pricing_profile_id", Value: 1}}},
		},
		colBookings: {
			{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "status", Value: 1}, {Key: "check_in", Value: 1}, {Key: "check_out", Value: 1}}},
		},
		colProfiles: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		colRules: {
			{Keys: bson.D{{Key: "profile_id", Value: 1}, {Key: "priority", Value: -1}}},
		},
		colLogs: {
			{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errs.Unavailable(err)
		}
	}
	return nil
}
