package repository

import (
	"context"
	"errors"
	"testing"

	"coupon-drop/internal/model"
	ierr "coupon-drop/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type setActiveCalls struct {
	updates int
	gets    int
}

func (c *setActiveCalls) update(results ...*model.Coupon) func(context.Context) (*model.Coupon, error) {
	return func(context.Context) (*model.Coupon, error) {
		i := c.updates
		c.updates++
		if i < len(results) {
			return results[i], nil
		}
		return nil, nil
	}
}

func (c *setActiveCalls) get(existing *model.Coupon, err error) func(context.Context, primitive.ObjectID) (*model.Coupon, error) {
	return func(context.Context, primitive.ObjectID) (*model.Coupon, error) {
		c.gets++
		return existing, err
	}
}

func TestSetActiveWithRetry(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()
	updated := &model.Coupon{ID: id, IsActive: false}

	t.Run("first update wins", func(t *testing.T) {
		calls := &setActiveCalls{}
		coupon, err := setActiveWithRetry(ctx, id, calls.update(updated), calls.get(nil, nil))
		require.NoError(t, err)
		assert.Same(t, updated, coupon)
		assert.Equal(t, 1, calls.updates)
		assert.Zero(t, calls.gets)
	})

	t.Run("claimed coupon", func(t *testing.T) {
		calls := &setActiveCalls{}
		_, err := setActiveWithRetry(ctx, id, calls.update(), calls.get(&model.Coupon{ID: id, IsClaimed: true}, nil))
		require.Error(t, err)
		assert.True(t, ierr.IsInvalidOperation(err))
		assert.Equal(t, 1, calls.updates)
	})

	t.Run("missing coupon", func(t *testing.T) {
		calls := &setActiveCalls{}
		notFound := ierr.NewError("missing").Mark(ierr.ErrNotFound)
		_, err := setActiveWithRetry(ctx, id, calls.update(), calls.get(nil, notFound))
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("released between reads then updated", func(t *testing.T) {
		calls := &setActiveCalls{}
		coupon, err := setActiveWithRetry(ctx, id, calls.update(nil, updated), calls.get(&model.Coupon{ID: id}, nil))
		require.NoError(t, err)
		assert.Same(t, updated, coupon)
		assert.Equal(t, 2, calls.updates)
	})

	t.Run("keeps flapping", func(t *testing.T) {
		calls := &setActiveCalls{}
		_, err := setActiveWithRetry(ctx, id, calls.update(), calls.get(&model.Coupon{ID: id}, nil))
		require.Error(t, err)
		assert.True(t, ierr.Is(err, ierr.ErrDatabase))
		assert.Equal(t, setActiveAttempts, calls.updates)
		assert.Equal(t, setActiveAttempts, calls.gets)
	})

	t.Run("update error", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := setActiveWithRetry(ctx, id,
			func(context.Context) (*model.Coupon, error) { return nil, boom },
			func(context.Context, primitive.ObjectID) (*model.Coupon, error) {
				t.Fatal("get must not be called")
				return nil, nil
			},
		)
		assert.ErrorIs(t, err, boom)
	})
}
