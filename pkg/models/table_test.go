package models

import (
	"encoding/json"
	"testing"
)

func TestTableNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TableNumber
		wantErr bool
	}{
		{"string", `{"tableNumber":"12"}`, "12", false},
		{"padded string", `{"tableNumber":"  A3 "}`, "A3", false},
		{"number", `{"tableNumber":7}`, "7", false},
		{"zero", `{"tableNumber":0}`, "", false},
		{"zero float", `{"tableNumber":0.0}`, "", false},
		{"zero string", `{"tableNumber":"0"}`, "0", false},
		{"null", `{"tableNumber":null}`, "", false},
		{"missing", `{}`, "", false},
		{"bool", `{"tableNumber":true}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req WaiterCallRequest
			err := json.Unmarshal([]byte(tt.input), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && req.TableNumber != tt.want {
				t.Errorf("TableNumber = %q, want %q", req.TableNumber, tt.want)
			}
		})
	}
}

func TestCalculateTotal(t *testing.T) {
	req := CreateOrderRequest{Items: []CartItem{
		{Item: MenuItem{Price: 2.5}, Quantity: 2},
		{Item: MenuItem{Price: 10}, Quantity: 1},
	}}
	if got := req.CalculateTotal(); got != 15 {
		t.Errorf("CalculateTotal() = %v, want 15", got)
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, ok := ParseOrderStatus("ready"); !ok || s != StatusReady {
		t.Errorf("ParseOrderStatus(ready) = %q, %v", s, ok)
	}
	if _, ok := ParseOrderStatus("READY"); ok {
		t.Error("status parsing should be case sensitive")
	}
}
