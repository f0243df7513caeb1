package transactions

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeAPI struct {
	paths []string
	body  string
}

func (f *fakeAPI) Get(_ context.Context, path string, out any) error {
	f.paths = append(f.paths, path)
	return json.Unmarshal([]byte(f.body), out)
}

func TestListSortsNewestFirst(t *testing.T) {
	api := &fakeAPI{body: `[
		{"id":1,"type":"deposit","amount":"100","status":"approved","created_at":"2024-05-01T10:00:00Z"},
		{"id":2,"type":"withdrawal","amount":"60","status":"pending","created_at":"2024-05-03T10:00:00Z"},
		{"id":3,"type":"mining","amount":"1.5","status":"approved","created_at":"2024-05-02T10:00:00Z"}
	]`}
	txs, err := NewService(api).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if txs[0].ID != 2 || txs[1].ID != 3 || txs[2].ID != 1 {
		t.Fatalf("unexpected order %+v", txs)
	}
	if txs[0].Credit() || !txs[1].Credit() {
		t.Fatal("unexpected credit classification")
	}
	if got := Filter(txs, TypeMining); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("unexpected filter result %+v", got)
	}
}

func TestGetBuildsPath(t *testing.T) {
	api := &fakeAPI{body: `{"id":42,"type":"deposit","amount":"5","status":"pending","created_at":"2024-05-01T10:00:00Z"}`}
	svc := NewService(api)

	tx, err := svc.Get(context.Background(), 42)
	if err != nil || tx.ID != 42 {
		t.Fatalf("unexpected transaction %+v %v", tx, err)
	}
	if api.paths[0] != "/single-transaction/42" {
		t.Fatalf("unexpected path %s", api.paths[0])
	}
	if _, err := svc.Get(context.Background(), 0); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}
