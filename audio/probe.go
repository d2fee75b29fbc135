package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Info describes the first audio stream of a file.
type Info struct {
	Format     string        `json:"format"`
	Codec      string        `json:"codec"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitRate    int64         `json:"bit_rate,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Probe inspects a local file with ffprobe.
func (n *Normalizer) Probe(ctx context.Context, path string) (*Info, error) {
	return n.probe(ctx, path)
}

func (n *Normalizer) probe(ctx context.Context, path string) (*Info, error) {
	res, err := n.ffprobe.Run(ctx,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return nil, &ConversionError{Message: "the audio file could not be inspected", Detail: res.StderrTail(5), Err: err}
	}
	return parseProbe(res.Stdout)
}

func parseProbe(data []byte) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("audio: decode ffprobe output: %w", err)
	}

	info := &Info{Format: out.Format.FormatName}
	found := false
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info.Codec = s.CodecName
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		info.Channels = s.Channels
		found = true
		break
	}
	if !found {
		return nil, &ConversionError{Message: "the file has no audio stream"}
	}

	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second))
	}
	if br, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
		info.BitRate = br
	}
	return info, nil
}
