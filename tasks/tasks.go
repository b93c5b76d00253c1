package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	QueueMedia = "media"

	TypeThumbnail      = "media:thumbnail"
	TypeThumbnailSweep = "media:thumbnail_sweep"
	TypeDeleteObjects  = "storage:delete_objects"

	MaxRetry = 3
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type ThumbnailPayload struct {
	ItemID  uint `json:"item_id"`
	OwnerID uint `json:"owner_id"`
}

type DeleteObjectsPayload struct {
	Keys []string `json:"keys"`
}

func NewThumbnailTask(itemID, ownerID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ThumbnailPayload{ItemID: itemID, OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeThumbnail, payload), nil
}

func NewDeleteObjectsTask(keys []string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteObjectsPayload{Keys: keys})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeleteObjects, payload), nil
}

func NewThumbnailSweepTask() *asynq.Task {
	return asynq.NewTask(TypeThumbnailSweep, nil)
}

// EnqueueMedia puts task on the media queue with the default retry budget.
func EnqueueMedia(enqueuer Enqueuer, task *asynq.Task) (*asynq.TaskInfo, error) {
	return enqueuer.Enqueue(task, asynq.MaxRetry(MaxRetry), asynq.Queue(QueueMedia))
}
