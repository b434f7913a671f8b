// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/taibuivan/modgate/internal/auth"
	"github.com/taibuivan/modgate/internal/platform/dberr"
)

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

/*
TestMongoLedgerStore checks that every ledger operation is one server-side
command on the moderator document, never a read followed by a rewrite.
*/
func TestMongoLedgerStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	moderatorID := primitive.NewObjectID().Hex()

	mt.Run("add pushes", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		require.NoError(mt, repository.AddRefreshToken(ctx, moderatorID, "token-a"))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.Contains(mt, started.Command.String(), `"$push"`)
		assert.Contains(mt, started.Command.String(), `"token-a"`)
		assert.Nil(mt, mt.GetStartedEvent(), "no second round trip")
	})

	mt.Run("remove cuts one entry in a pipeline", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		require.NoError(mt, repository.RemoveRefreshToken(ctx, moderatorID, "token-a"))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		assert.Contains(mt, started.Command.String(), `"$indexOfArray"`)
		assert.NotContains(mt, started.Command.String(), `"$pull"`)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("clear empties the list", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		require.NoError(mt, repository.ClearRefreshTokens(ctx, moderatorID))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Contains(mt, started.Command.String(), `"$set"`)
		assert.Contains(mt, started.Command.String(), `"refreshTokens"`)
	})

	mt.Run("unknown moderator", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		mt.AddMockResponses(updated(0))

		err := repository.AddRefreshToken(ctx, moderatorID, "token-a")
		assert.True(mt, dberr.IsNotFound(err))
	})

	mt.Run("contains matches in the query", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		namespace := mt.DB.Name() + ".moderators"

		oid, err := primitive.ObjectIDFromHex(moderatorID)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch, bson.D{{Key: "_id", Value: oid}}))
		ok, err := repository.HasRefreshToken(ctx, moderatorID, "token-a")
		require.NoError(mt, err)
		assert.True(mt, ok)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Contains(mt, started.Command.String(), `"token-a"`)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch))
		ok, err = repository.HasRefreshToken(ctx, moderatorID, "token-b")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("backend failure", func(mt *mtest.T) {
		repository := auth.NewMongoModeratorRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		_, err := repository.HasRefreshToken(ctx, moderatorID, "token-a")
		assert.Error(mt, err)
	})
}
