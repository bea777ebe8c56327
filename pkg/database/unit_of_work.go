package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs a unit of work, atomically when Transactional reports true
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Transactional() bool
}

// UnitOfWork runs claims inside multi-document transactions. Needs a replica set.
type UnitOfWork struct {
	client *mongo.Client
}

func NewUnitOfWork(client *mongo.Client) *UnitOfWork {
	return &UnitOfWork{client: client}
}

// WithTransaction executes fn within a MongoDB transaction.
// If fn returns an error, the transaction is aborted.
// fn may be retried on transient errors and must not keep state between attempts.
func (uow *UnitOfWork) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := uow.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	return err
}

func (uow *UnitOfWork) Transactional() bool { return true }

// Direct runs units of work without a transaction, for standalone servers
type Direct struct{}

func (Direct) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Direct) Transactional() bool { return false }
