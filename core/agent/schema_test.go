package agent

import (
	"encoding/json"
	"testing"
)

func TestTextDocumentSchema(t *testing.T) {
	schema := TextDocumentSchema()
	b, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("expected schema to marshal, got %v", err)
	}

	var decoded struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("expected schema JSON, got %v", err)
	}
	for _, field := range []string{"bizType", "eof", "data"} {
		if _, ok := decoded.Properties[field]; !ok {
			t.Fatalf("expected property %q in %s", field, b)
		}
	}
}
