package handler

import (
	"encoding/json"
	"testing"
)

func TestEventReferenceAndKey(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantRef string
		wantKey string
	}{
		{
			name:    "charge",
			raw:     `{"event":"charge.success","data":{"id":302961,"reference":"CM-ABC"}}`,
			wantRef: "CM-ABC",
			wantKey: "charge.success:302961",
		},
		{
			name:    "refund flat",
			raw:     `{"event":"refund.processed","data":{"id":"rf_1","transaction_reference":"CM-R1"}}`,
			wantRef: "CM-R1",
			wantKey: "refund.processed:rf_1",
		},
		{
			name:    "refund nested",
			raw:     `{"event":"refund.processed","data":{"transaction":{"reference":"CM-R2"}}}`,
			wantRef: "CM-R2",
			wantKey: "refund.processed:CM-R2",
		},
		{
			name:    "no reference",
			raw:     `{"event":"transfer.success","data":{}}`,
			wantRef: "",
			wantKey: "transfer.success:",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var env webhookEnvelope
			if err := json.Unmarshal([]byte(tc.raw), &env); err != nil {
				t.Fatal(err)
			}
			ref := eventReference(env)
			if ref != tc.wantRef {
				t.Errorf("reference = %q, want %q", ref, tc.wantRef)
			}
			if key := eventKey(env, ref); key != tc.wantKey {
				t.Errorf("key = %q, want %q", key, tc.wantKey)
			}
		})
	}
}
