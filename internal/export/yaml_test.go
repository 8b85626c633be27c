package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/serenity-guest/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	snapshot := internal.CreateTestSnapshot("guest_abc")

	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(snapshot, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"guest_id: guest_abc", "session_id: sess-s1", "mood_score: 6", "theme: dark"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	var got internal.GuestSnapshot
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got.WellnessPoints.Points != 120 {
		t.Errorf("WellnessPoints = %+v", got.WellnessPoints)
	}
}
