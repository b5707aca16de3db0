package domain

import (
	"testing"
	"time"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and trims",
			input: "  Never Gonna Give You Up  ",
			want:  "never gonna give you up",
		},
		{
			name:  "strips official video suffix",
			input: "Never Gonna Give You Up (Official Video)",
			want:  "never gonna give you up",
		},
		{
			name:  "strips bracketed lyrics tag",
			input: "Some Song [Lyrics]",
			want:  "some song",
		},
		{
			name:  "strips mv marker",
			input: "曲名 (MV)",
			want:  "曲名",
		},
		{
			name:  "strips m/v marker",
			input: "Song Title [M/V]",
			want:  "song title",
		},
		{
			name:  "collapses inner whitespace",
			input: "a   b\tc",
			want:  "a b c",
		},
		{
			name:  "keeps unrelated parentheses",
			input: "Song (Acoustic Version)",
			want:  "song (acoustic version)",
		},
		{
			name:  "keeps bare official tag",
			input: "Song (Official)",
			want:  "song (official)",
		},
		{
			name:  "keeps bare audio tag",
			input: "Song (Audio)",
			want:  "song (audio)",
		},
		{
			name:  "keeps remaster without suffix",
			input: "Song (Remaster)",
			want:  "song (remaster)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestURLKey(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "youtube watch url",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "youtube:dQw4w9WgXcQ",
		},
		{
			name: "youtube watch url with extra params",
			url:  "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ&list=PL123",
			want: "youtube:dQw4w9WgXcQ",
		},
		{
			name: "youtu.be short link",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: "youtube:dQw4w9WgXcQ",
		},
		{
			name: "bilibili bv id",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD",
			want: "bilibili:BV1xx411c7mD",
		},
		{
			name: "bilibili av id",
			url:  "https://www.bilibili.com/video/av170001",
			want: "bilibili:av170001",
		},
		{
			name: "netease song query id",
			url:  "https://music.163.com/song?id=22677119",
			want: "netease:22677119",
		},
		{
			name: "netease fragment style url",
			url:  "https://music.163.com/#/song?id=22677119",
			want: "netease:22677119",
		},
		{
			name: "catbox file",
			url:  "https://files.catbox.moe/abc123.mp3",
			want: "catbox:abc123.mp3",
		},
		{
			name: "unknown host falls back to url",
			url:  "https://example.com/audio/track.ogg",
			want: "https://example.com/audio/track.ogg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URLKey(tt.url); got != tt.want {
				t.Errorf("URLKey(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestTrackDescriptor_Identity_SameTrackDifferentDecoration(t *testing.T) {
	a := TrackDescriptor{
		Title:        "Song Name (Official Video)",
		Duration:     3*time.Minute + 33*time.Second,
		CanonicalURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Source:       SourceYouTube,
	}
	b := TrackDescriptor{
		Title:        "song name",
		Duration:     3*time.Minute + 33*time.Second,
		CanonicalURL: "https://youtu.be/dQw4w9WgXcQ",
		Source:       SourceYouTube,
	}

	if a.Identity() != b.Identity() {
		t.Errorf("expected identical identity keys, got %+v and %+v", a.Identity(), b.Identity())
	}
}

func TestTrackDescriptor_Identity_DifferentDurations(t *testing.T) {
	a := TrackDescriptor{Title: "x", Duration: time.Minute, CanonicalURL: "https://example.com/a"}
	b := TrackDescriptor{Title: "x", Duration: 2 * time.Minute, CanonicalURL: "https://example.com/a"}

	if a.Identity() == b.Identity() {
		t.Error("expected different identity keys for different durations")
	}
}
