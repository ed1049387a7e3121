package activity

import (
	"testing"

	"PulseLink/internal/modules/presence/domain/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMapsActivityTypes(t *testing.T) {
	listening := gateway.RawActivity{
		Type:    gateway.ActivityListening,
		Name:    "Bohemian Rhapsody",
		Details: "Queen",
	}
	listening.Assets.LargeText = "A Night at the Opera"

	cases := []struct {
		name string
		raw  gateway.RawActivity
		want State
	}{
		{
			name: "playing",
			raw:  gateway.RawActivity{Type: gateway.ActivityPlaying, Name: "Elden Ring"},
			want: State{Kind: KindGame, Name: "Elden Ring"},
		},
		{
			name: "listening",
			raw:  listening,
			want: State{Kind: KindMusic, Artist: "Queen", Song: "Bohemian Rhapsody", Album: "A Night at the Opera"},
		},
		{
			name: "streaming",
			raw:  gateway.RawActivity{Type: gateway.ActivityStreaming, Name: "Twitch", Details: "Speedrun marathon", URL: "https://twitch.tv/x"},
			want: State{Kind: KindStreaming, Platform: "Twitch", Title: "Speedrun marathon", URL: "https://twitch.tv/x"},
		},
		{
			name: "watching",
			raw:  gateway.RawActivity{Type: gateway.ActivityWatching, Name: "The Wire", Details: "HBO"},
			want: State{Kind: KindWatching, Title: "The Wire", Platform: "HBO"},
		},
		{
			name: "custom",
			raw:  gateway.RawActivity{Type: gateway.ActivityCustom, Name: "mood", State: "grinding"},
			want: State{Kind: KindCustom, Name: "mood", StateText: "grinding"},
		},
		{
			name: "competing",
			raw:  gateway.RawActivity{Type: gateway.ActivityCompeting, Name: "Chess Blitz", Details: "Lichess Arena"},
			want: State{Kind: KindCompeting, Name: "Chess Blitz", Venue: "Lichess Arena"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract([]gateway.RawActivity{tc.raw})
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestExtractSkipsUnknownTypes(t *testing.T) {
	got := Extract([]gateway.RawActivity{
		{Type: "unknown", Name: "mystery"},
		{Type: gateway.ActivityPlaying, Name: "Hades"},
	})
	require.NotNil(t, got)
	assert.Equal(t, KindGame, got.Kind)
	assert.Equal(t, "Hades", got.Name)
}

func TestExtractEmptySnapshot(t *testing.T) {
	assert.Nil(t, Extract(nil))
	assert.Nil(t, Extract([]gateway.RawActivity{{Type: "unknown"}}))
}

func TestSame(t *testing.T) {
	assert.True(t, Same(nil, nil))
	assert.False(t, Same(nil, &State{Kind: KindGame, Name: "Hades"}))
	assert.False(t, Same(&State{Kind: KindGame, Name: "Hades"}, nil))

	// 不同类型永远不是同一活动
	assert.False(t, Same(
		&State{Kind: KindGame, Name: "Hades"},
		&State{Kind: KindCustom, Name: "Hades"},
	))

	assert.True(t, Same(
		&State{Kind: KindGame, Name: "Hades"},
		&State{Kind: KindGame, Name: "Hades"},
	))
	assert.False(t, Same(
		&State{Kind: KindGame, Name: "Hades"},
		&State{Kind: KindGame, Name: "Elden Ring"},
	))
}

func TestSameMusicIgnoresAlbum(t *testing.T) {
	old := &State{Kind: KindMusic, Artist: "Queen", Song: "Bohemian Rhapsody", Album: "A Night at the Opera"}
	updated := &State{Kind: KindMusic, Artist: "Queen", Song: "Bohemian Rhapsody", Album: "Greatest Hits"}
	assert.True(t, Same(old, updated))

	diff := &State{Kind: KindMusic, Artist: "Queen", Song: "Under Pressure"}
	assert.False(t, Same(old, diff))
}

func TestTriggerValue(t *testing.T) {
	assert.Equal(t, "", (*State)(nil).TriggerValue())
	assert.Equal(t, "Hades", (&State{Kind: KindGame, Name: "Hades"}).TriggerValue())
	assert.Equal(t, "Queen", (&State{Kind: KindMusic, Artist: "Queen", Song: "x"}).TriggerValue())
	assert.Equal(t, "Speedrun marathon", (&State{Kind: KindStreaming, Platform: "Twitch", Title: "Speedrun marathon"}).TriggerValue())
	assert.Equal(t, "The Wire", (&State{Kind: KindWatching, Title: "The Wire"}).TriggerValue())
	assert.Equal(t, "mood", (&State{Kind: KindCustom, Name: "mood"}).TriggerValue())
	assert.Equal(t, "Chess Blitz", (&State{Kind: KindCompeting, Name: "Chess Blitz"}).TriggerValue())
}
