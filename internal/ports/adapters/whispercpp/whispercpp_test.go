package whispercpp

import (
	"context"
	"testing"
)

const sampleOutput = `{
  "transcription": [
    {
      "offsets": {"from": 0, "to": 2400},
      "text": " Hello wonderful world.",
      "tokens": [
        {"text": "[_BEG_]", "offsets": {"from": 0, "to": 0}},
        {"text": " Hello", "offsets": {"from": 0, "to": 500}},
        {"text": " wonder", "offsets": {"from": 500, "to": 900}},
        {"text": "ful", "offsets": {"from": 900, "to": 1200}},
        {"text": " world", "offsets": {"from": 1200, "to": 2000}},
        {"text": ".", "offsets": {"from": 2000, "to": 2400}},
        {"text": "[_TT_120]", "offsets": {"from": 2400, "to": 2400}}
      ]
    }
  ]
}`

func TestDecode_JoinsSubwordTokens(t *testing.T) {
	tr, err := decode([]byte(sampleOutput))
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(tr.Segments))
	}
	seg := tr.Segments[0]
	if seg.Text != "Hello wonderful world." || seg.Start != 0 || seg.End != 2.4 {
		t.Fatalf("unexpected segment: %#v", seg)
	}
	want := []struct {
		word       string
		start, end float64
	}{
		{"Hello", 0, 0.5},
		{"wonderful", 0.5, 1.2},
		{"world.", 1.2, 2.4},
	}
	if len(seg.Words) != len(want) {
		t.Fatalf("expected %d words, got %#v", len(want), seg.Words)
	}
	for i, w := range want {
		got := seg.Words[i]
		if got.Word != w.word || got.Start != w.start || got.End != w.end {
			t.Fatalf("word %d = %#v, want %+v", i, got, w)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := decode([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTranscribe_RequiresModel(t *testing.T) {
	if _, err := New("whisper", "").Transcribe(context.Background(), "a.wav", t.TempDir()); err == nil {
		t.Fatalf("expected error without model")
	}
}
