package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNoMessage is returned when the blocking read times out with an empty queue.
var ErrNoMessage = errors.New("no message available")

// Message is one queue delivery. ID is the broker's entry id and is what gets
// acknowledged; Body is the raw JSON payload produced by the uploader service.
type Message struct {
	ID   string
	Body []byte
}

type IQueue interface {
	Consume(ctx context.Context) (*Message, error)
	Ack(ctx context.Context, messageID string) error
	Close() error
}

type redisQueue struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

func New() (IQueue, error) {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	stream := os.Getenv("QUEUE_STREAM")
	if stream == "" {
		stream = "roadvision"
	}
	group := os.Getenv("QUEUE_GROUP")
	if group == "" {
		group = "roadvision-workers"
	}
	consumer := os.Getenv("QUEUE_CONSUMER")
	if consumer == "" {
		hostname, _ := os.Hostname()
		consumer = fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	}

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
		return nil, err
	}

	// BUSYGROUP means another worker instance already created the group.
	if err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err(); err != nil {
		if !isBusyGroup(err) {
			logrus.Error(fmt.Sprintf("Failed to create consumer group %s: %v", group, err))
			return nil, err
		}
	}

	logrus.Info(fmt.Sprintf("Successfully connected to Redis, consuming stream %s as %s/%s", stream, group, consumer))

	return &redisQueue{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    5 * time.Second,
	}, nil
}

// Consume blocks for one delivery. The entry stays in the group's pending list
// until Ack is called, so a worker crash leaves the message claimable by
// another instance instead of losing it.
func (q *redisQueue) Consume(ctx context.Context) (*Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoMessage
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading from stream %s: %v", q.stream, err))
		return nil, err
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, ErrNoMessage
	}

	entry := streams[0].Messages[0]
	payload, ok := entry.Values["payload"].(string)
	if !ok {
		// Ack and drop entries without a payload field, they can never succeed.
		logrus.Warn(fmt.Sprintf("Dropping stream entry %s without payload field", entry.ID))
		if err := q.Ack(ctx, entry.ID); err != nil {
			return nil, err
		}
		return nil, ErrNoMessage
	}

	return &Message{ID: entry.ID, Body: []byte(payload)}, nil
}

func (q *redisQueue) Ack(ctx context.Context, messageID string) error {
	if err := q.client.XAck(ctx, q.stream, q.group, messageID).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error acking message %s: %v", messageID, err))
		return err
	}
	logrus.Debug(fmt.Sprintf("Acked message %s", messageID))
	return nil
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
