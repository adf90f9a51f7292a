package entity

import (
	"encoding/json"
	"testing"
)

func TestOptionalTracksPresence(t *testing.T) {
	var body struct {
		Title       Optional[string]     `json:"title"`
		Description Optional[string]     `json:"description"`
		Status      Optional[TaskStatus] `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"description":null,"status":"done"}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Title.Set {
		t.Fatalf("absent title should stay unset")
	}
	if !body.Description.Set || !body.Description.Null {
		t.Fatalf("null description should be set and null, got %+v", body.Description)
	}
	if !body.Status.Set || body.Status.Null || body.Status.Value != TaskStatusDone {
		t.Fatalf("unexpected status: %+v", body.Status)
	}
	if body.Description.Ptr() != nil {
		t.Fatalf("null optional should have nil pointer")
	}
}

func TestOptionalMarshal(t *testing.T) {
	b, err := json.Marshal(Some("x"))
	if err != nil || string(b) != `"x"` {
		t.Fatalf("marshal some: %s %v", b, err)
	}
	b, err = json.Marshal(Null[string]())
	if err != nil || string(b) != "null" {
		t.Fatalf("marshal null: %s %v", b, err)
	}
}

func TestOptionalOmitZeroDropsAbsentFields(t *testing.T) {
	body := struct {
		Title       Optional[string] `json:"title,omitzero"`
		Description Optional[string] `json:"description,omitzero"`
	}{Description: Null[string]()}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"description":null}` {
		t.Fatalf("got %s", b)
	}
}
