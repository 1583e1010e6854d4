package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database
var MongoConversations *mongo.Collection
var MongoVoiceMessages *mongo.Collection

func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoURI := MongoURI
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := MongoDBName
	if dbName == "" {
		dbName = "db_gateway_chat"
	}

	clientOpts := options.Client().ApplyURI(mongoURI)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("gagal terhubung ke MongoDB: %w", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return fmt.Errorf("gagal melakukan ping ke MongoDB: %w", err)
	}

	log.Println("✅ Terhubung ke basis data MongoDB!")

	MongoClient = client
	MongoDatabase = client.Database(dbName)
	MongoConversations = MongoDatabase.Collection("conversations")
	MongoVoiceMessages = MongoDatabase.Collection("voice_messages")

	return nil
}
