package testsupport

import "timedtext/internal/transcript"

// SampleFlat returns a two-paragraph flat transcript:
// "hello world" by S1 and "good morning" by S2.
func SampleFlat() transcript.Flat {
	return transcript.Flat{
		Title: "Sample",
		Words: []transcript.Word{
			{ID: 0, Start: 0.0, End: 0.5, Text: "hello"},
			{ID: 1, Start: 0.5, End: 1.0, Text: "world"},
			{ID: 2, Start: 1.2, End: 1.6, Text: "good"},
			{ID: 3, Start: 1.6, End: 2.2, Text: "morning"},
		},
		Paragraphs: []transcript.FlatParagraph{
			{ID: 0, Start: 0.0, End: 1.0, Speaker: "S1"},
			{ID: 1, Start: 1.2, End: 2.2, Speaker: "S2"},
		},
	}
}

// SampleDocument assembles SampleFlat into a document.
func SampleDocument() transcript.Document {
	return transcript.FromFlat(SampleFlat(), transcript.DefaultUnknownSpeaker)
}
