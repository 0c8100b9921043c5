package optimistic

import (
	"context"
	"errors"
	"testing"
)

type record struct {
	ID     string
	Active bool
}

func toggle(id string) func([]record) []record {
	return func(items []record) []record {
		for i := range items {
			if items[i].ID == id {
				items[i].Active = !items[i].Active
			}
		}
		return items
	}
}

func TestUpdateConfirmed(t *testing.T) {
	list := []record{{ID: "a", Active: true}, {ID: "b", Active: false}}

	err := Update(context.Background(), &list, toggle("b"), func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !list[1].Active {
		t.Errorf("mutation not applied: %+v", list)
	}
}

func TestUpdateRevertsOnFailure(t *testing.T) {
	list := []record{{ID: "a", Active: true}, {ID: "b", Active: false}}
	confirmErr := errors.New("server rejected")

	err := Update(context.Background(), &list, toggle("a"), func(context.Context) error {
		return confirmErr
	})
	if !errors.Is(err, confirmErr) {
		t.Fatalf("Update() error = %v, want %v", err, confirmErr)
	}
	if !list[0].Active {
		t.Errorf("mutation not reverted: %+v", list)
	}
	if len(list) != 2 {
		t.Errorf("list length changed: %d", len(list))
	}
}

func TestUpdateAppliedBeforeConfirm(t *testing.T) {
	list := []record{{ID: "a", Active: false}}

	var observed bool
	err := Update(context.Background(), &list, toggle("a"), func(context.Context) error {
		observed = list[0].Active
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !observed {
		t.Errorf("mutation was not visible during confirmation")
	}
}

func TestRemove(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		list := []record{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		err := Remove(context.Background(), &list, func(r record) bool { return r.ID == "b" },
			func(context.Context) error { return nil })
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
			t.Errorf("remove result: %+v", list)
		}
	})

	t.Run("reverted", func(t *testing.T) {
		list := []record{{ID: "a"}, {ID: "b"}}
		err := Remove(context.Background(), &list, func(r record) bool { return r.ID == "a" },
			func(context.Context) error { return errors.New("nope") })
		if err == nil {
			t.Fatal("Remove() expected error")
		}
		if len(list) != 2 || list[0].ID != "a" {
			t.Errorf("remove not reverted: %+v", list)
		}
	})
}
