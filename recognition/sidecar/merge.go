package sidecar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kbukum/verbatim/recognition"
)

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type pyannoteResponse struct {
	Segments    []speakerTurn `json:"segments"`
	NumSpeakers int           `json:"num_speakers"`
	Error       string        `json:"error,omitempty"`
}

type speakerTurn struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("sidecar: decode response: %w", err)
	}
	return nil
}

func plainSegments(tr whisperResponse) []recognition.Segment {
	if len(tr.Segments) == 0 {
		if t := strings.TrimSpace(tr.Text); t != "" {
			return []recognition.Segment{{Transcript: t}}
		}
		return nil
	}
	out := make([]recognition.Segment, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		out = append(out, recognition.Segment{Transcript: strings.TrimSpace(s.Text)})
	}
	return out
}

// merge attributes each transcribed segment to the speaker turn it overlaps
// most. Speaker ids are numbered from 1 in order of first appearance in
// turns. A segment that overlaps no turn gets UnknownSpeaker.
func merge(segments []whisperSegment, turns []speakerTurn) []recognition.Segment {
	numbers := make(map[string]int)
	for _, t := range turns {
		if _, ok := numbers[t.SpeakerID]; !ok {
			numbers[t.SpeakerID] = len(numbers) + 1
		}
	}

	out := make([]recognition.Segment, 0, len(segments))
	for _, s := range segments {
		speaker := recognition.UnknownSpeaker
		best := 0.0
		for _, t := range turns {
			if ov := overlap(s.Start, s.End, t.StartTime, t.EndTime); ov > best {
				best = ov
				speaker = numbers[t.SpeakerID]
			}
		}

		text := strings.TrimSpace(s.Text)
		fields := strings.Fields(text)
		words := make([]recognition.Word, len(fields))
		for i, f := range fields {
			words[i] = recognition.Word{Text: f, Speaker: recognition.Tag(speaker)}
		}
		out = append(out, recognition.Segment{Transcript: text, Words: words})
	}
	return out
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}
