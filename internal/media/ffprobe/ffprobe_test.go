package ffprobe

import "testing"

func TestParseAndPrimaryVideo(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"index": 0, "codec_type": "audio", "codec_name": "aac"},
			{"index": 1, "codec_type": "video", "codec_name": "h264", "width": 720, "height": 480, "sample_aspect_ratio": "8:9"}
		],
		"format": {"filename": "reel.mp4", "duration": "123.45", "size": "1000"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	video, ok := result.PrimaryVideo()
	if !ok || video.Index != 1 {
		t.Fatalf("expected video stream 1, got %+v (%v)", video, ok)
	}
	if video.SquarePixels() {
		t.Fatal("expected 8:9 to be non-square")
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestSquarePixels(t *testing.T) {
	tests := []struct {
		sar  string
		want bool
	}{
		{sar: "1:1", want: true},
		{sar: "", want: true},
		{sar: "0:1", want: true},
		{sar: "N/A", want: true},
		{sar: "10:11", want: false},
		{sar: "4:3", want: false},
	}
	for _, tt := range tests {
		if got := (Stream{SampleAspectRatio: tt.sar}).SquarePixels(); got != tt.want {
			t.Fatalf("SquarePixels(%q) = %v, want %v", tt.sar, got, tt.want)
		}
	}
}

func TestAudioOnlyHasNoVideo(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}, Format: Format{Duration: "bad"}}
	if _, ok := result.PrimaryVideo(); ok {
		t.Fatal("expected no video stream")
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0 duration for invalid value, got %v", result.DurationSeconds())
	}
}
