// Package feature models the roadmap items served by the voting service and
// the local, possibly stale, copy the board renders.
package feature

import "encoding/json"

// StatusCompleted is the only status with special meaning: completed
// features are listed apart and cannot be voted on.
const StatusCompleted = "Completed"

// Feature is one roadmap item.
type Feature struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Content is an image URL.
	Content string `json:"content"`
	Details string `json:"details"`
	Votes   int    `json:"votes"`
	Status  string `json:"status"`
}

// UnmarshalJSON accepts both the service's `_id` and a plain `id`.
func (f *Feature) UnmarshalJSON(data []byte) error {
	type plain Feature
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Feature(raw.plain)
	if f.ID == "" {
		f.ID = raw.AltID
	}
	if f.Votes < 0 {
		f.Votes = 0
	}
	return nil
}

// Completed reports whether the feature has shipped.
func (f Feature) Completed() bool {
	return f.Status == StatusCompleted
}

// Partition splits features into pending and completed, preserving order.
func Partition(features []Feature) (pending, completed []Feature) {
	for _, f := range features {
		if f.Completed() {
			completed = append(completed, f)
		} else {
			pending = append(pending, f)
		}
	}
	return pending, completed
}

// Find returns the feature with the given id.
func Find(features []Feature, id string) (Feature, bool) {
	for _, f := range features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// IncrementVotes adds one vote to the feature with the given id in place.
func IncrementVotes(features []Feature, id string) bool {
	for i := range features {
		if features[i].ID == id {
			features[i].Votes++
			return true
		}
	}
	return false
}
