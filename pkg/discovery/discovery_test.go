package discovery

import "testing"

func TestParseInstance(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"10.0.0.5:8080", "10.0.0.5", 8080, false},
		{"gateway.local:80", "gateway.local", 80, false},
		{"no-port", "", 0, true},
		{"host:http", "", 0, true},
		{":8080", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			inst, err := parseInstance("qrdine-gateway", tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if inst.Host != tt.wantHost || inst.Port != tt.wantPort {
				t.Errorf("instance = %+v", inst)
			}
			if inst.Addr() != tt.addr {
				t.Errorf("Addr() = %q, want %q", inst.Addr(), tt.addr)
			}
		})
	}
}

func TestInstanceKey(t *testing.T) {
	inst := &ServiceInstance{Name: "qrdine-gateway", Host: "127.0.0.1", Port: 8080}
	if got, want := inst.key("/services/"), "/services/qrdine-gateway/127.0.0.1:8080"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}
