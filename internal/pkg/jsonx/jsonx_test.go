package jsonx

import "testing"

type row struct {
	Role string `json:"role"`
	Code string `json:"onet_code"`
}

func TestUnmarshalPlainArray(t *testing.T) {
	var rows []row
	if err := Unmarshal(`[{"role":"Engineer","onet_code":"15-1252.00"}]`, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 1 || rows[0].Role != "Engineer" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnmarshalFencedArray(t *testing.T) {
	text := "```json\n[{\"role\":\"Nurse\",\"onet_code\":\"29-1141.00\"}]\n```"
	var rows []row
	if err := Unmarshal(text, &rows); err != nil {
		t.Fatalf("unmarshal fenced: %v", err)
	}
	if len(rows) != 1 || rows[0].Code != "29-1141.00" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnmarshalFenceWithoutLanguage(t *testing.T) {
	text := "```\n[{\"role\":\"Clerk\",\"onet_code\":\"43-9061.00\"}]\n```"
	var rows []row
	if err := Unmarshal(text, &rows); err != nil {
		t.Fatalf("unmarshal fenced: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnmarshalTrailingComma(t *testing.T) {
	text := `[{"role":"Analyst","onet_code":"13-1111.00",},]`
	var rows []row
	if err := Unmarshal(text, &rows); err != nil {
		t.Fatalf("unmarshal trailing comma: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnmarshalMixedProse(t *testing.T) {
	text := "Here are the mappings you asked for:\n[{\"role\":\"Driver\",\"onet_code\":\"53-3032.00\"}]\nLet me know if anything looks off."
	var rows []row
	if err := Unmarshal(text, &rows); err != nil {
		t.Fatalf("unmarshal mixed: %v", err)
	}
	if len(rows) != 1 || rows[0].Role != "Driver" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var rows []row
	if err := Unmarshal("sorry, I cannot help with that", &rows); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
	if err := Unmarshal("   ", &rows); err == nil {
		t.Fatal("expected error for blank input")
	}
}
