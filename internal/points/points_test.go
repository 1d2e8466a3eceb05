package points

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Entry
	}{
		{
			name:  "department prefix",
			input: "Sales pt 5",
			want:  []Entry{{Department: "Sales", Points: "5", SourceComment: "Sales pt 5"}},
		},
		{
			name:  "department suffix",
			input: "Marketing 3pt",
			want:  []Entry{{Department: "Marketing", Points: "3", SourceComment: "Marketing 3pt"}},
		},
		{
			name:  "no department",
			input: "pt 7",
			want:  []Entry{{Points: "7", SourceComment: "pt 7"}},
		},
		{
			name:  "colon separator",
			input: "Sales pt: 5",
			want:  []Entry{{Department: "Sales", Points: "5", SourceComment: "Sales pt: 5"}},
		},
		{
			name:  "dash separator",
			input: "Marketing pt-8",
			want:  []Entry{{Department: "Marketing", Points: "8", SourceComment: "Marketing pt-8"}},
		},
		{
			name:  "ampersand preserved",
			input: "R&D pt 20",
			want:  []Entry{{Department: "R&D", Points: "20", SourceComment: "R&D pt 20"}},
		},
		{
			name:  "internal spaces preserved",
			input: "Customer Success pt 4",
			want:  []Entry{{Department: "Customer Success", Points: "4", SourceComment: "Customer Success pt 4"}},
		},
		{
			name:  "leading zeros kept",
			input: "QA pt 007",
			want:  []Entry{{Department: "QA", Points: "007", SourceComment: "QA pt 007"}},
		},
		{
			name:  "uppercase keyword",
			input: "Sales PT 9",
			want:  []Entry{{Department: "Sales", Points: "9", SourceComment: "Sales PT 9"}},
		},
		{
			name:  "noise word dropped",
			input: "and 4pt",
			want:  []Entry{{Points: "4", SourceComment: "and 4pt"}},
		},
		{
			name:  "noise word casing ignored",
			input: "ALSO pt 2",
			want:  []Entry{{Points: "2", SourceComment: "ALSO pt 2"}},
		},
		{
			name:  "no-break space before keyword",
			input: "Sales\u00a0pt 5",
			want:  []Entry{{Department: "Sales", Points: "5", SourceComment: "Sales\u00a0pt 5"}},
		},
		{
			name:  "no-break space inside department",
			input: "Customer\u00a0Success 4pt",
			want:  []Entry{{Department: "Customer\u00a0Success", Points: "4", SourceComment: "Customer\u00a0Success 4pt"}},
		},
		{
			name:  "vertical tab before suffix keyword",
			input: "1\vpt",
			want:  []Entry{{Points: "1", SourceComment: "1\vpt"}},
		},
		{
			name:  "byte order mark trimmed from department",
			input: "\ufeffSales pt\u2003 5",
			want:  []Entry{{Department: "Sales", Points: "5", SourceComment: "\ufeffSales pt\u2003 5"}},
		},
		{
			name:  "no-break space after digits",
			input: "aTpa1t\u00a0pt0",
			want:  []Entry{{Department: "aTpa1t", Points: "0", SourceComment: "aTpa1t\u00a0pt0"}},
		},
		{
			name:  "two suffix entries",
			input: "Dev 4pt Designer 5pt",
			want: []Entry{
				{Department: "Dev", Points: "4", SourceComment: "Dev 4pt Designer 5pt"},
				{Department: "Designer", Points: "5", SourceComment: "Dev 4pt Designer 5pt"},
			},
		},
		{
			name:  "duplicates kept",
			input: "HR pt 1 HR pt 1",
			want: []Entry{
				{Department: "HR", Points: "1", SourceComment: "HR pt 1 HR pt 1"},
				{Department: "HR", Points: "1", SourceComment: "HR pt 1 HR pt 1"},
			},
		},
		{
			name:  "word character after keyword",
			input: "3pts for Sales",
			want:  nil,
		},
		{
			name:  "keyword without digits",
			input: "This is about pt but no number",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(tt.input)
			if tt.want == nil {
				if got.Found || len(got.Entries) != 0 {
					t.Fatalf("ExtractText(%q) = %+v, want no entries", tt.input, got)
				}
				if got.Message != MessageNotFound {
					t.Errorf("Message = %q, want %q", got.Message, MessageNotFound)
				}
				return
			}
			if !reflect.DeepEqual(got.Entries, tt.want) {
				t.Errorf("ExtractText(%q) entries = %+v, want %+v", tt.input, got.Entries, tt.want)
			}
			if !got.Found {
				t.Error("Found = false, want true")
			}
			if got.Message != MessageFound {
				t.Errorf("Message = %q, want %q", got.Message, MessageFound)
			}
		})
	}
}

func TestExtractMultipleReferencesInOrder(t *testing.T) {
	text := "Sales pt 3, Marketing pt 7, HR pt 2"
	got := ExtractText(text)

	want := []Entry{
		{Department: "Sales", Points: "3", SourceComment: text},
		{Department: "Marketing", Points: "7", SourceComment: text},
		{Department: "HR", Points: "2", SourceComment: text},
	}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Fatalf("entries = %+v, want %+v", got.Entries, want)
	}
}

func TestExtractWithoutKeyword(t *testing.T) {
	inputs := []string{
		"",
		"This is a regular comment without the keyword",
		"5 points for Sales",
		"12345",
	}
	for _, input := range inputs {
		got := ExtractText(input)
		if got.Found {
			t.Errorf("ExtractText(%q).Found = true, want false", input)
		}
		if got.Entries == nil || len(got.Entries) != 0 {
			t.Errorf("ExtractText(%q).Entries = %#v, want empty slice", input, got.Entries)
		}
	}
}

func TestExtractFallsThroughToLaterSource(t *testing.T) {
	got := Extract(
		Source{Body: "talking about pt but no number"},
		Source{Body: "no keyword here"},
		Source{Body: "HR pt 2"},
		Source{Body: "Sales pt 9"},
	)

	want := []Entry{{Department: "HR", Points: "2", SourceComment: "HR pt 2"}}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Fatalf("entries = %+v, want %+v", got.Entries, want)
	}
	if !got.Found || got.Message != MessageFound {
		t.Errorf("got Found=%v Message=%q", got.Found, got.Message)
	}
}

func TestExtractNoSources(t *testing.T) {
	got := Extract()
	if got.Found || len(got.Entries) != 0 || got.Message != MessageNotFound {
		t.Errorf("Extract() = %+v", got)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	sources := []Source{{Body: "pt"}, {Body: "Sales pt 3, R&D 8pt"}}
	first := Extract(sources...)
	second := Extract(sources...)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestSourceText(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"plain", Source{Body: "Sales pt 5"}, "Sales pt 5"},
		{"nested", Source{Comment: &Comment{Body: "Sales pt 10"}}, "Sales pt 10"},
		{"plain preferred", Source{Body: "plain", Comment: &Comment{Body: "nested"}}, "plain"},
		{"absent", Source{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceFromJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain body", `{"body":"Sales pt 5"}`, "Sales pt 5"},
		{"nested body", `{"body":{"comment":{"body":"Sales pt 10"}}}`, "Sales pt 10"},
		{"deeper nesting ignored", `{"body":{"comment":{"body":{"text":"pt 1"}}}}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceFromJSON([]byte(tt.raw)).Text(); got != tt.want {
				t.Errorf("SourceFromJSON(%s).Text() = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	res := Extract(SourceFromJSON([]byte(`{"body":{"comment":{"body":"Sales pt 10"}}}`)))
	if !res.Found || res.Entries[0].Department != "Sales" {
		t.Errorf("nested extract = %+v", res)
	}
}

func TestEntryJSON(t *testing.T) {
	data, err := json.Marshal([]Entry{
		{Department: "Sales", Points: "5", SourceComment: "Sales pt 5 pt 6"},
		{Points: "6", SourceComment: "Sales pt 5 pt 6"},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"department":"Sales","points":"5","sourceComment":"Sales pt 5 pt 6"},{"department":null,"points":"6","sourceComment":"Sales pt 5 pt 6"}]`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestEntryString(t *testing.T) {
	if got := (Entry{Department: "IT", Points: "10"}).String(); got != "IT 10" {
		t.Errorf("String() = %q", got)
	}
	if got := (Entry{Points: "10"}).String(); got != "10" {
		t.Errorf("String() = %q", got)
	}
}
