package track

import (
	"context"

	"github.com/mchmarny/genrelay/pkg/config"
	"github.com/pkg/errors"
)

// DynamoClientFunc creates the DynamoDB client when that driver is selected.
type DynamoClientFunc func(ctx context.Context) (DynamoAPI, error)

// Open returns the Store selected by the store driver.
func Open(ctx context.Context, c config.Store, newClient DynamoClientFunc) (Store, error) {
	switch c.Driver {
	case config.StoreSQLite:
		return NewSQLStore(ctx, DriverSQLite, c.DSN)
	case config.StorePostgres:
		return NewSQLStore(ctx, DriverPostgres, c.DSN)
	case config.StoreDynamoDB:
		if c.Table == "" {
			return nil, errors.New("store.table required for dynamodb")
		}
		if newClient == nil {
			return nil, errors.New("dynamodb client factory required")
		}
		api, err := newClient(ctx)
		if err != nil {
			return nil, err
		}
		return NewDynamoStore(api, c.Table), nil
	default:
		return nil, errors.Errorf("unsupported store driver: %s", c.Driver)
	}
}
