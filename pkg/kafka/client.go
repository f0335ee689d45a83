// Package kafka carries new-blob notifications to the ingestion pipeline.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lexguard-go/internal/config"
	"lexguard-go/pkg/database"
	"lexguard-go/pkg/log"
	"lexguard-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor is anything able to process an ingestion task. It decouples
// the consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestTask) error
}

var producer *kafka.Writer

// InitProducer initializes the ingestion task producer.
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka producer initialized successfully")
}

// ProduceIngestTask publishes a new-blob notification.
func ProduceIngestTask(task tasks.IngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(task.Key),
			Value: taskBytes,
		},
	)
}

// StartConsumer reads ingestion tasks and hands them to the processor.
// A failing task is redelivered until its Redis failure counter reaches 3,
// after which the offset is committed so a poison document cannot block the
// queue.
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka consumer started, listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("failed to fetch message from Kafka", err)
			break
		}

		var task tasks.IngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("failed to parse Kafka message: %v, value: %s", err, string(m.Value))
			// Malformed message, commit to avoid blocking the queue.
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		log.Infof("processing ingest task: bucket=%s key=%s", task.Bucket, task.Key)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("ingest task failed: key=%s, error: %v", task.Key, err)
			attemptsKey := fmt.Sprintf("ingest:attempts:%s", task.Key)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// Redis unavailable: leave the offset uncommitted and let
				// Kafka redeliver.
				continue
			}
			if attempts >= 3 {
				log.Errorf("ingest task failed %d times, committing offset: key=%s", attempts, task.Key)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("failed to commit Kafka offset: %v", err)
				}
			}
		} else {
			log.Infof("ingest task succeeded: key=%s", task.Key)
			_ = database.RDB.Del(context.Background(), fmt.Sprintf("ingest:attempts:%s", task.Key)).Err()
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit Kafka offset: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("failed to close Kafka consumer: %v", err)
	}
}
