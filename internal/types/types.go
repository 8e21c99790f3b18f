package types

type Transcript struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Hit is a raw search result returned by the transcription collaborator.
// File references the transcript, not the video.
type Hit struct {
	File  string
	Words string
	Start float64
	End   float64
}

// Match is one cut instruction: a time interval of a source video.
// Start and End are in seconds and already include padding and sync.
type Match struct {
	File  string  `json:"file"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	// Adjusted is set once the overlap fix-up has pushed Start forward.
	Adjusted bool `json:"adjusted,omitempty"`
}

// Composition is the ordered list of cuts making up a supercut.
type Composition []Match

// Batch is a contiguous slice of a composition rendered on its own.
type Batch struct {
	Index  int
	Offset int
	Clips  Composition
}

type BatchResult struct {
	Batch  int
	Offset int
	Output string
	Err    error
}

// RenderReport collects per-batch outcomes of a render.
type RenderReport struct {
	Output  string
	Batches []BatchResult
}

func (r RenderReport) Failed() []BatchResult {
	var out []BatchResult
	for _, b := range r.Batches {
		if b.Err != nil {
			out = append(out, b)
		}
	}
	return out
}

func (r RenderReport) Succeeded() int {
	n := 0
	for _, b := range r.Batches {
		if b.Err == nil {
			n++
		}
	}
	return n
}
