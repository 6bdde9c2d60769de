package leads

import "testing"

func TestExtractWithoutMarkerReturnsAnswerUnchanged(t *testing.T) {
	extractor := NewExtractor("")

	answer := "O modelo básico custa R$ 5.999,00."
	cleaned, lead := extractor.Extract(answer)

	if cleaned != answer {
		t.Fatalf("expected answer unchanged, got %q", cleaned)
	}
	if lead != nil {
		t.Fatalf("expected no lead, got %+v", lead)
	}
}

func TestExtractWellFormedDirective(t *testing.T) {
	extractor := NewExtractor("")

	cleaned, lead := extractor.Extract("Perfeito, vou te enviar os detalhes!\nLEAD_CAPTURADO: Ana | 11999999999 | cafeteira")

	if cleaned != "Perfeito, vou te enviar os detalhes!" {
		t.Fatalf("unexpected cleaned answer: %q", cleaned)
	}
	if lead == nil {
		t.Fatal("expected a lead")
	}
	if lead.Name != "Ana" || lead.Contact != "11999999999" || lead.Interest != "cafeteira" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestExtractPadsMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantLead Lead
	}{
		{
			name:     "name only",
			answer:   "LEAD_CAPTURADO: Ana",
			wantLead: Lead{Name: "Ana", Contact: "N/A", Interest: "N/A"},
		},
		{
			name:     "name and contact",
			answer:   "LEAD_CAPTURADO: Ana | 11999999999",
			wantLead: Lead{Name: "Ana", Contact: "11999999999", Interest: "N/A"},
		},
		{
			name:     "empty directive",
			answer:   "LEAD_CAPTURADO:",
			wantLead: Lead{Name: "N/A", Contact: "N/A", Interest: "N/A"},
		},
		{
			name:     "blank middle field",
			answer:   "LEAD_CAPTURADO: Ana |  | cafeteira",
			wantLead: Lead{Name: "Ana", Contact: "N/A", Interest: "cafeteira"},
		},
	}

	extractor := NewExtractor("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, lead := extractor.Extract(tt.answer)
			if lead == nil {
				t.Fatal("expected a lead")
			}
			if *lead != tt.wantLead {
				t.Fatalf("unexpected lead: %+v", lead)
			}
			if cleaned != "" {
				t.Fatalf("expected empty cleaned answer, got %q", cleaned)
			}
		})
	}
}

func TestExtractHonorsFirstMarkerOnly(t *testing.T) {
	extractor := NewExtractor("")

	cleaned, lead := extractor.Extract("Resposta.\nLEAD_CAPTURADO: Ana | 119 | LEAD_CAPTURADO: Beto")

	if cleaned != "Resposta." {
		t.Fatalf("unexpected cleaned answer: %q", cleaned)
	}
	if lead == nil || lead.Name != "Ana" {
		t.Fatalf("expected the first directive to win, got %+v", lead)
	}
}

func TestExtractTrimsTrailingWhitespace(t *testing.T) {
	extractor := NewExtractor("")

	cleaned, _ := extractor.Extract("Resposta.  \n\nLEAD_CAPTURADO: Ana | 119 | cafeteira")

	if cleaned != "Resposta." {
		t.Fatalf("expected trailing whitespace trimmed, got %q", cleaned)
	}
}

func TestExtractTrimsCarriageReturns(t *testing.T) {
	extractor := NewExtractor("")

	cleaned, lead := extractor.Extract("Resposta.\r\nLEAD_CAPTURADO: Ana | 119 | cafeteira")

	if cleaned != "Resposta." {
		t.Fatalf("expected CRLF trimmed, got %q", cleaned)
	}
	if lead == nil || lead.Name != "Ana" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestExtractCustomMarker(t *testing.T) {
	extractor := NewExtractor("LEAD_CAPTURED:")

	cleaned, lead := extractor.Extract("Sure!\nLEAD_CAPTURED: Ana | 119 | coffee maker")

	if cleaned != "Sure!" {
		t.Fatalf("unexpected cleaned answer: %q", cleaned)
	}
	if lead == nil || lead.Interest != "coffee maker" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}
