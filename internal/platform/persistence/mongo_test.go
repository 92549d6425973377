package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoDB_DatabaseAndCollection(t *testing.T) {
	// mongo.Connect does not dial until the first operation
	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	db := client.Database("leave_ledger_test")

	mdb := &MongoDB{
		logger:   newTestLogger(),
		client:   client,
		database: db,
	}
	assert.Equal(t, db, mdb.Database())
	assert.Equal(t, "leave_history", mdb.Collection("leave_history").Name())
	assert.Equal(t, "leave_ledger_test", mdb.Collection("leave_history").Database().Name())
}
