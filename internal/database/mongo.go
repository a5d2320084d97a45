package database

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and returns the client plus a handle on the
// database named in the URI (default "defectdb"). The handle is passed down to
// the stores; nothing here is kept in package state.
func ConnectMongo(mongoURI string) (*mongo.Client, *mongo.Database, error) {
	// Use longer timeout for Atlas connections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, err
	}

	// Ping the database with a separate context
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	db := client.Database(databaseName(mongoURI))

	log.Println("✅ Connected to MongoDB")
	return client, db, nil
}

// databaseName extracts the database name from a connection string.
// Format: mongodb://.../database_name?...
func databaseName(mongoURI string) string {
	dbName := "defectdb"
	if mongoURI == "" {
		return dbName
	}
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			dbName = dbPart
		}
	}
	return dbName
}

// DisconnectMongo closes the client with a bounded timeout.
func DisconnectMongo(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
