package queue

import (
	"github.com/maheshrc27/slotcast/internal/service"
)

// Queue handles delayed publish tasks.
type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishItem = "item:publish"

type PublishItemPayload struct {
	ItemID string `json:"item_id"`
}
