package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"voice-complaint-go/internal/config"
	"voice-complaint-go/internal/types"
)

// ErrDuplicate is returned when a task for the same media id is pending.
var ErrDuplicate = errors.New("queue: task already enqueued")

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueVoiceProcess queues one voice note. The media id is the task id, so
// a second request for a pending note is rejected.
func (c *Client) EnqueueVoiceProcess(ref types.AudioReference) error {
	payload := VoiceProcessPayload{MediaID: ref.MediaID, AccessToken: ref.AccessToken, LanguageHint: ref.LanguageHint}
	err := c.enqueue(TypeVoiceProcess, payload, asynq.TaskID(ref.MediaID), asynq.MaxRetry(3), asynq.Timeout(5*time.Minute))
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return ErrDuplicate
	}
	return err
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
