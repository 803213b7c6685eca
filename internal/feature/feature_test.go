package feature

import (
	"encoding/json"
	"testing"
)

func TestPartitionPreservesOrder(t *testing.T) {
	features := []Feature{
		{ID: "a", Status: "Open"},
		{ID: "b", Status: "Completed"},
		{ID: "c", Status: "Open"},
	}
	pending, completed := Partition(features)
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending partition: %+v", pending)
	}
	if len(completed) != 1 || completed[0].ID != "b" {
		t.Fatalf("unexpected completed partition: %+v", completed)
	}
}

func TestPartitionIsCaseSensitive(t *testing.T) {
	pending, completed := Partition([]Feature{{ID: "a", Status: "completed"}, {ID: "b"}})
	if len(pending) != 2 || len(completed) != 0 {
		t.Fatalf("only exact %q counts as completed: %d/%d", StatusCompleted, len(pending), len(completed))
	}
}

func TestIncrementVotes(t *testing.T) {
	features := []Feature{{ID: "a", Votes: 4}, {ID: "b", Votes: 1}}
	if !IncrementVotes(features, "b") {
		t.Fatalf("expected match for b")
	}
	if features[1].Votes != 2 || features[0].Votes != 4 {
		t.Fatalf("unexpected votes after increment: %+v", features)
	}
	if IncrementVotes(features, "missing") {
		t.Fatalf("expected no match")
	}
}

func TestUnmarshalAcceptsBothIDFields(t *testing.T) {
	var list []Feature
	payload := `[{"_id":"x1","title":"Dark mode","votes":3,"status":"Open"},{"id":"x2","votes":-2}]`
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list[0].ID != "x1" || list[0].Title != "Dark mode" || list[0].Votes != 3 {
		t.Fatalf("unexpected first feature: %+v", list[0])
	}
	if list[1].ID != "x2" {
		t.Fatalf("expected fallback id, got %q", list[1].ID)
	}
	if list[1].Votes != 0 {
		t.Fatalf("negative votes should clamp to zero, got %d", list[1].Votes)
	}
	if got, ok := Find(list, "x2"); !ok || got.ID != "x2" {
		t.Fatalf("find x2 failed")
	}
}
