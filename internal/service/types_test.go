package service_test

import (
	"testing"

	"todo/internal/service"
)

func TestNewDraft(t *testing.T) {
	d := service.NewDraft("Buy milk")
	if d.ID == "" {
		t.Error("expected a generated ID")
	}
	if d.Title != "Buy milk" || d.Completed {
		t.Errorf("unexpected draft: %+v", d)
	}
	if other := service.NewDraft("Buy milk"); other.ID == d.ID {
		t.Error("expected distinct IDs for distinct drafts")
	}
}

func TestToggledLeavesOriginal(t *testing.T) {
	orig := service.Todo{ID: "a", Title: "x"}
	toggled := orig.Toggled()

	if orig.Completed {
		t.Error("original must not change")
	}
	if !toggled.Completed || toggled.ID != "a" || toggled.Title != "x" {
		t.Errorf("unexpected toggled value: %+v", toggled)
	}
	if toggled.Toggled() != orig {
		t.Error("double toggle should restore the original value")
	}
}
