package format_test

import (
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/vettriage/internal/format"
)

func TestASCIITable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Disease", "Confidence", "Urgency")
	tb.Row("Parvovirus", "85.3%", "Emergency")
	tb.Row("Gastroenteritis", "9.1%", "Medium")
	out := tb.String()

	for _, want := range []string{"Disease", "Parvovirus", "85.3%", "Medium"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdownTableWithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Class", "Support")
	tb.Row("Kennel Cough", 12)
	tb.Row("Pneumonia", 8)
	tb.Footer("TOTAL", 20)
	out := tb.String()

	if !strings.Contains(out, "| Class") {
		t.Errorf("expected markdown header:\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator:\n%s", out)
	}
	if !strings.Contains(out, "TOTAL") {
		t.Errorf("expected footer:\n%s", out)
	}
}

func TestColumnsAlignment(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Feature", "Importance")
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	tb.Row("Age", "0.12")
	if out := tb.String(); !strings.Contains(out, "0.12") {
		t.Errorf("expected row value in output:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    format.Mode
		wantErr bool
	}{
		{"", format.ASCII, false},
		{"table", format.ASCII, false},
		{"MD", format.Markdown, false},
		{"markdown", format.Markdown, false},
		{"html", format.ASCII, true},
	}
	for _, tt := range tests {
		got, err := format.ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := format.Percent(0.853); got != "85.3%" {
		t.Errorf("Percent = %q", got)
	}
	if got := format.Decimal(0.6666); got != "0.67" {
		t.Errorf("Decimal = %q", got)
	}
	if got := format.Duration(90 * time.Second); got != "1m 30s" {
		t.Errorf("Duration = %q", got)
	}
	if got := format.Duration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("Duration = %q", got)
	}
	if got := format.Truncate("Upper Respiratory Infection", 10); got != "Upper R..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := format.Truncate("Colic", 10); got != "Colic" {
		t.Errorf("Truncate = %q", got)
	}
}
