//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListStatuses(t *testing.T) {
	resp := doGet(t, "/api/statuses")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	statuses := decodeJSON[[]statusResponse](t, resp)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 statuses, got %d", len(statuses))
	}

	byID := make(map[string]statusResponse, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	cancelled, ok := byID["cancelled"]
	if !ok {
		t.Fatal("cancelled status not found")
	}
	if cancelled.Name != "Anulado" {
		t.Errorf("cancelled name: got %q, want %q", cancelled.Name, "Anulado")
	}
	if !byID["confirmed"].Reversible {
		t.Error("confirmed status should be reversible")
	}
}

func TestChangeStatus_AllowedTransition(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details:  []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
		Delivery: 5,
	})

	resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: "confirmed"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Status.ID != "confirmed" {
		t.Errorf("status: got %q, want confirmed", order.Status.ID)
	}
	// A status change never touches the money.
	if order.Total != created.Total {
		t.Errorf("total changed: got %v, want %v", order.Total, created.Total)
	}
}

func TestChangeStatus_DisallowedTransition(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details: []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
	})

	// pending -> shipped skips confirmation.
	resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: "shipped"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestChangeStatus_ReversibleGoesBack(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details: []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
	})

	for _, statusID := range []string{"confirmed", "shipped", "confirmed"} {
		resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: statusID})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d", statusID, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details: []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
	})

	resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: "bogus"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestChangeStatus_UnknownOrder(t *testing.T) {
	resp := doPost(t, "/api/orders/00000000-0000-0000-0000-000000000000/status", changeStatusRequest{StatusID: "confirmed"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOrderHistory(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details: []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
	})

	for _, statusID := range []string{"confirmed", "shipped"} {
		resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: statusID})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d", statusID, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doGet(t, "/api/orders/"+created.ID+"/history")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	entries := decodeJSON[[]historyEntryResponse](t, resp)
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].FromStatusID != "pending" || entries[0].ToStatusID != "confirmed" {
		t.Errorf("entry 0: got %s -> %s, want pending -> confirmed", entries[0].FromStatusID, entries[0].ToStatusID)
	}
	if entries[1].FromStatusID != "confirmed" || entries[1].ToStatusID != "shipped" {
		t.Errorf("entry 1: got %s -> %s, want confirmed -> shipped", entries[1].FromStatusID, entries[1].ToStatusID)
	}
}

func TestAnnulOrder(t *testing.T) {
	created := createOrder(t, orderRequest{
		Details: []lineItemRequest{{Name: "Bookshelf", UnitPrice: 80, Quantity: 1}},
	})

	resp := doPost(t, "/api/orders/"+created.ID+"/status", changeStatusRequest{StatusID: "cancelled"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Status.ID != "cancelled" {
		t.Errorf("status: got %q, want cancelled", order.Status.ID)
	}
}
