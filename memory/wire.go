package memory

// StoreResponse is the body returned by POST /memory/store.
type StoreResponse struct {
	Success  bool    `json:"success"`
	MemoryID string  `json:"memory_id"`
	Memory   *Memory `json:"memory"`
}

// DeleteResponse is the body returned by DELETE /memory/{id}.
type DeleteResponse struct {
	Success bool `json:"success"`
}
