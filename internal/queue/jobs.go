package queue

// BoardGameQueue is the queue name for batch board-game creation.
const BoardGameQueue = "boardgame-create"

type GamePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Complexity  float64  `json:"complexity"`
	MinAge      int      `json:"minAge"`
	PlayTime    int      `json:"playTime"`
	Year        int      `json:"year"`
	Mechanics   []string `json:"mechanics,omitempty"`
}

// BatchCreateJob is the payload enqueued by the batch endpoint and consumed
// by the worker. Delivery is at least once; there is no cancellation once
// enqueued.
type BatchCreateJob struct {
	OwnerID uint          `json:"ownerId"`
	Games   []GamePayload `json:"games"`
}
