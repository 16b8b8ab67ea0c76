package options

import (
	"testing"
)

func TestBuild_Constants(t *testing.T) {
	opts := Build("EN", false)

	if opts.ChunkLengthS != 30 {
		t.Errorf("expected chunk length 30, got %d", opts.ChunkLengthS)
	}
	if opts.BatchSize != 24 {
		t.Errorf("expected batch size 24, got %d", opts.BatchSize)
	}
}

func TestBuild_LanguageDirective(t *testing.T) {
	tests := []struct {
		language string
		want     string
	}{
		{"EN", "<|en|>"},
		{"en", "<|en|>"},
		{"De", "<|de|>"},
		{"UK", "<|uk|>"},
		{"fr", "<|fr|>"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			opts := Build(tt.language, false)

			if opts.Generate == nil {
				t.Fatal("expected a language directive")
			}
			if opts.Generate.Task != "transcribe" {
				t.Errorf("expected task 'transcribe', got %s", opts.Generate.Task)
			}
			if opts.Generate.Language != tt.want {
				t.Errorf("expected directive %s, got %s", tt.want, opts.Generate.Language)
			}
		})
	}
}

func TestBuild_AutoOmitsDirective(t *testing.T) {
	for _, language := range []string{"auto", "AUTO", "Auto"} {
		opts := Build(language, false)
		if opts.Generate != nil {
			t.Errorf("language %q must not attach a directive, got %+v", language, opts.Generate)
		}
	}
}

func TestBuild_TimestampPassthrough(t *testing.T) {
	if !Build("EN", true).ReturnTimestamps {
		t.Error("expected ReturnTimestamps true")
	}
	if Build("EN", false).ReturnTimestamps {
		t.Error("expected ReturnTimestamps false")
	}
}
