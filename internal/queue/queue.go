// Package queue moves ingestion jobs through RabbitMQ. Every queue gets a
// retry companion with a short TTL that dead-letters back to the main
// queue, and a DLQ for messages that keep failing.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// IngestQueue carries one message per uploaded transcript.
const IngestQueue = "lineage_ingest"

type IngestMessage struct {
	IngestionID string `json:"ingestion_id"`
	Source      string `json:"source"`
	Path        string `json:"path"`
}

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

func PublishIngest(ch *amqp091.Channel, msg IngestMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		IngestQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
		CorrelationId: msg.IngestionID,
	}

	if err := ch.Publish("", q.Name, false, false, publishing); err != nil {
		return err
	}

	logger.Debug("[Queue][PublishIngest] Message published",
		"ingestion", msg.IngestionID, "source", msg.Source)
	return nil
}
