package chains

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeAPI string

func (f fakeAPI) Get(_ context.Context, _ string, out any) error {
	return json.Unmarshal([]byte(f), out)
}

func TestListSkipsInactive(t *testing.T) {
	svc := NewService(fakeAPI(`[
		{"id":1,"name":"Tron","symbol":"USDT","network":"TRC20","deposit_address":"TAddr","min_deposit":"10","is_active":true},
		{"id":2,"name":"Ethereum","symbol":"USDT","network":"ERC20","deposit_address":"0xAddr","min_deposit":"50","is_active":false}
	]`))

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Network != "TRC20" {
		t.Fatalf("unexpected chains %+v", list)
	}

	if _, err := svc.ByID(context.Background(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected inactive chain to be missing, got %v", err)
	}
	c, err := svc.ByID(context.Background(), 1)
	if err != nil || c.DepositAddress != "TAddr" {
		t.Fatalf("unexpected chain %+v %v", c, err)
	}
}
