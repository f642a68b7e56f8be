package analysis

import (
	"context"
	"encoding/json"
)

// QueuedRequest asks for a boundary to be analyzed asynchronously. Geometry
// is a GeoJSON Polygon, Feature or FeatureCollection.
type QueuedRequest struct {
	RequestID       string          `json:"requestId,omitempty"`
	SessionID       string          `json:"sessionId,omitempty"`
	Name            string          `json:"name,omitempty"`
	Geometry        json.RawMessage `json:"geometry"`
	LandOwnership   string          `json:"landOwnership,omitempty"`
	SplitLargeAreas bool            `json:"splitLargeAreas,omitempty"`
	MaxArea         float64         `json:"maxArea,omitempty"`
}

// RequestQueue hands requests to the worker pool and returns the request id.
type RequestQueue interface {
	Enqueue(ctx context.Context, req QueuedRequest) (string, error)
}

//Personal.AI order the ending
