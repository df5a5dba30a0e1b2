package prefixed_uuid

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

const rawID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func TestNew(t *testing.T) {
	p := New("session")

	if p.Prefix != "session" {
		t.Errorf("want prefix %q, got %q", "session", p.Prefix)
	}
	if p.UUID == uuid.Nil {
		t.Error("want a generated UUID, got the nil UUID")
	}
}

func TestFromUUID(t *testing.T) {
	id := uuid.MustParse(rawID)
	p := FromUUID("report", id)

	if p.Prefix != "report" || p.UUID != id {
		t.Errorf("unexpected value: %+v", p)
	}
	if want := "report-" + rawID; p.String() != want {
		t.Errorf("want %q, got %q", want, p.String())
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantErr    bool
	}{
		{name: "session id", input: "session-" + rawID, wantPrefix: "session"},
		{name: "report id", input: "report-" + rawID, wantPrefix: "report"},
		{name: "underscore prefix", input: "weather_report-" + rawID, wantPrefix: "weather_report"},
		{name: "empty prefix", input: "-" + rawID, wantPrefix: ""},
		{name: "no separator", input: "session0123456789abcdef0123456789abcdef", wantErr: true},
		{name: "bad uuid", input: "session-not-a-uuid", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
		{name: "bare uuid", input: rawID, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromString(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want an error for %q, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Prefix != tt.wantPrefix {
				t.Errorf("want prefix %q, got %q", tt.wantPrefix, got.Prefix)
			}
			if got.UUID.String() != rawID {
				t.Errorf("want UUID %q, got %q", rawID, got.UUID)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, prefix := range []string{"session", "report", "weather_report"} {
		t.Run(prefix, func(t *testing.T) {
			original := New(prefix)

			parsed, err := FromString(original.String())
			if err != nil {
				t.Fatalf("failed to parse %q: %v", original, err)
			}
			if parsed != original {
				t.Errorf("round trip changed the value: %v != %v", parsed, original)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name string
		p    PrefixedUUID
		want bool
	}{
		{name: "zero value", p: PrefixedUUID{}, want: true},
		{name: "prefix only", p: PrefixedUUID{Prefix: "session"}, want: false},
		{name: "uuid only", p: PrefixedUUID{UUID: uuid.MustParse(rawID)}, want: false},
		{name: "generated", p: New("session"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	p := FromUUID("session", uuid.MustParse(rawID))

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if want := `"session-` + rawID + `"`; string(data) != want {
		t.Errorf("want %s, got %s", want, data)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: `"session-` + rawID + `"`},
		{name: "not a JSON string", input: `session-` + rawID, wantErr: true},
		{name: "number", input: `42`, wantErr: true},
		{name: "bad uuid", input: `"session-not-a-uuid"`, wantErr: true},
		{name: "empty string", input: `""`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PrefixedUUID
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want an error for %s, got %+v", tt.input, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Prefix != "session" || p.UUID.String() != rawID {
				t.Errorf("unexpected value: %+v", p)
			}
		})
	}
}

func TestJSONInStruct(t *testing.T) {
	type reportRef struct {
		ID       PrefixedUUID `json:"id"`
		Location string       `json:"location"`
	}

	original := reportRef{
		ID:       FromUUID("report", uuid.MustParse(rawID)),
		Location: "Berlin",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed reportRef
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if parsed != original {
		t.Errorf("round trip changed the value: %+v != %+v", parsed, original)
	}
}
