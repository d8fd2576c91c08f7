package chain

import (
	"encoding/json"
	"testing"
)

func TestParseIntegerEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		item    StackItem
		wantErr bool
	}{
		{
			name: "large integer",
			item: StackItem{
				Type:  "Integer",
				Value: json.RawMessage(`"999999999999999999999999999999"`),
			},
			wantErr: false,
		},
		{
			name: "negative integer",
			item: StackItem{
				Type:  "Integer",
				Value: json.RawMessage(`"-12345"`),
			},
			wantErr: false,
		},
		{
			name: "zero",
			item: StackItem{
				Type:  "Integer",
				Value: json.RawMessage(`"0"`),
			},
			wantErr: false,
		},
		{
			name: "wrong type",
			item: StackItem{
				Type:  "Boolean",
				Value: json.RawMessage(`true`),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInteger(tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseInteger() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
