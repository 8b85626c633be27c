package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/serenity-guest/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	snapshot := internal.CreateTestSnapshot("guest_abc")

	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(snapshot, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var types []string
	var first map[string]interface{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var obj map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", scanner.Text(), err)
		}
		if first == nil {
			first = obj
		}
		types = append(types, obj["type"].(string))
	}

	want := []string{"chat_message", "chat_message", "mood_log", "peer_message", "wellness_points"}
	if len(types) != len(want) {
		t.Fatalf("record types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("record %d type = %q, want %q", i, types[i], want[i])
		}
	}
	if first["session"] != "sess-s1" || first["role"] != internal.RoleUser {
		t.Errorf("first record = %v", first)
	}
}

func TestJSONLExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(&internal.GuestSnapshot{}, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 1 {
		t.Errorf("empty snapshot wrote %d lines, want only the points record", got)
	}
}
