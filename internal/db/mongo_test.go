package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo("mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoStore_NilCollection(t *testing.T) {
	store := &MongoStore{}
	ctx := context.Background()

	_, err := store.CreateSession(ctx, models.Session{})
	assert.Error(t, err)
	assert.Error(t, store.RecordAnswer(ctx, models.Record{}))
	_, err = store.LoadConversation(ctx, 1)
	assert.Error(t, err)
	_, err = store.ListIssues(ctx)
	assert.Error(t, err)

	_, err = NewMongoStore(ctx, nil, "test")
	assert.Error(t, err)
}

// Integration test (requires running MongoDB)
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
		return
	}
	client, err := ConnectMongo(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer client.Disconnect(context.Background())

	n := 0
	runStoreSuite(t, func(t *testing.T) Store {
		n++
		name := fmt.Sprintf("test_maintenance_%d_%d", time.Now().UnixNano(), n)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := NewMongoStore(ctx, client, name)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Database(name).Drop(context.Background()) })
		return store
	})
}
