package services

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gateway-go/config"
)

// struct untuk response frontend
type ConversationSummary struct {
	SID           string `bson:"sid" json:"sid"`
	GroupID       string `bson:"group_id" json:"group_id"`
	Username      string `bson:"username" json:"username"`
	LastMessageAt string `bson:"last_message_at" json:"last_message_at"`
}

// GetOpsMetrics:
// - totalSessions -> dari PostgreSQL (sid unik pada gateway_sessions)
// - totalConvos -> dari MongoDB (jumlah dokumen pada collection conversations)
// - totalMsgs -> dari MongoDB (jumlah total elemen pesan di field messages pada tiap dokumen)
func GetOpsMetrics(c *gin.Context) (map[string]int64, error) {
	var totalSessions int64

	ctx := c.Request.Context()

	if config.DB != nil {
		querySessions := `SELECT COUNT(DISTINCT sid) FROM gateway_sessions`
		if err := config.DB.QueryRowContext(ctx, querySessions).Scan(&totalSessions); err != nil {
			config.Log.Error("Error retrieving total sessions: ", err)
			return nil, err
		}
	}

	metrics := map[string]int64{
		"total_sessions":      totalSessions,
		"total_conversations": 0,
		"total_messages":      0,
	}

	if config.MongoConversations == nil {
		return metrics, nil
	}

	totalConvos, err := config.MongoConversations.CountDocuments(ctx, bson.D{})
	if err != nil {
		config.Log.Error("Error counting conversations in MongoDB: ", err)
		return nil, err
	}
	metrics["total_conversations"] = totalConvos

	// Hitung total messages lewat aggregation: sum ukuran array messages
	// di setiap dokumen.
	pipeline := mongoPipelineForMessageCount()
	cursor, err := config.MongoConversations.Aggregate(ctx, pipeline)
	if err != nil {
		config.Log.Error("Error aggregating total messages in MongoDB: ", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var totalMsgs int64 = 0
	if cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			config.Log.Error("Error decoding aggregation result: ", err)
			return nil, err
		}
		// doc["total"] bisa berupa int32/int64/float64 tergantung hasil driver
		if v, ok := doc["total"]; ok && v != nil {
			switch n := v.(type) {
			case int32:
				totalMsgs = int64(n)
			case int64:
				totalMsgs = n
			case float64:
				totalMsgs = int64(n)
			default:
				var parsed int64
				_, _ = fmt.Sscan(fmt.Sprint(n), &parsed)
				totalMsgs = parsed
			}
		}
	}
	if err := cursor.Err(); err != nil {
		config.Log.Error("Cursor error during messages aggregation: ", err)
		return nil, err
	}
	metrics["total_messages"] = totalMsgs

	return metrics, nil
}

// helper: buat pipeline untuk menghitung total messages
func mongoPipelineForMessageCount() mongoPipeline {
	return mongoPipeline{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "messagesCount", Value: bson.D{
				{Key: "$size", Value: bson.D{
					{Key: "$ifNull", Value: bson.A{"$messages", bson.A{}}},
				}},
			}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$messagesCount"}}},
		}}},
	}
}

// typedef-like alias to keep pipeline helper tidy
type mongoPipeline = []bson.D

// GetRecentConversations: ambil dokumen conversations terbaru dari MongoDB.
// Batas default 10, bisa diubah lewat query param ?limit=.
func GetRecentConversations(c *gin.Context) ([]ConversationSummary, error) {
	var convos []ConversationSummary

	if config.MongoConversations == nil {
		return convos, nil
	}

	ctx := c.Request.Context()

	limit := int64(10)
	if l := c.Query("limit"); l != "" {
		var tmp int
		if _, err := fmt.Sscan(l, &tmp); err == nil && tmp > 0 {
			limit = int64(tmp)
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit)

	cursor, err := config.MongoConversations.Find(ctx, bson.D{}, opts)
	if err != nil {
		config.Log.Error("Error retrieving recent conversations from MongoDB: ", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			config.Log.Error("Error decoding conversation document: ", err)
			return nil, err
		}

		cs := ConversationSummary{
			SID:      toString(doc["sid"]),
			GroupID:  toString(doc["group_id"]),
			Username: toString(doc["username"]),
		}

		if ua, ok := doc["updated_at"]; ok && ua != nil {
			cs.LastMessageAt = fmt.Sprint(ua)
		} else if msgs, ok := doc["messages"]; ok && msgs != nil {
			if arr, ok := msgs.(bson.A); ok && len(arr) > 0 {
				last := arr[len(arr)-1]
				if m, ok := last.(bson.M); ok {
					if t, ok := m["timestamp"]; ok && t != nil {
						cs.LastMessageAt = fmt.Sprint(t)
					}
				}
			}
		}

		convos = append(convos, cs)
	}

	if err := cursor.Err(); err != nil {
		config.Log.Error("Cursor error after iterating recent conversations: ", err)
		return nil, err
	}

	return convos, nil
}

// toString: helper kecil untuk mengkonversi interface{} ke string aman
func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
