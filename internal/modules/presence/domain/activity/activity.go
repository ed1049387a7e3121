package activity

import (
	"time"

	"PulseLink/internal/modules/presence/domain/gateway"
)

// Kind 活动类型
type Kind string

const (
	KindGame      Kind = "GAME"
	KindMusic     Kind = "MUSIC"
	KindStreaming Kind = "STREAMING"
	KindWatching  Kind = "WATCHING"
	KindCustom    Kind = "CUSTOM"
	KindCompeting Kind = "COMPETING"
)

// State 标准化后的好友活动。按 Kind 区分有效字段：
//
//	GAME:      Name
//	MUSIC:     Artist, Song, Album
//	STREAMING: Platform, Title, URL
//	WATCHING:  Title, Platform
//	CUSTOM:    Name, StateText
//	COMPETING: Name, Venue
type State struct {
	Kind Kind

	Name      string
	Artist    string
	Song      string
	Album     string
	Platform  string
	Title     string
	URL       string
	StateText string
	Venue     string

	StartedAt time.Time
}

// Extract 从网关原始 presence 快照提取第一个可识别的活动，无法识别时返回 nil
func Extract(snapshot []gateway.RawActivity) *State {
	for i := range snapshot {
		raw := &snapshot[i]
		startedAt := time.Time{}
		if raw.CreatedAt > 0 {
			startedAt = time.UnixMilli(raw.CreatedAt)
		}

		switch raw.Type {
		case gateway.ActivityPlaying:
			return &State{Kind: KindGame, Name: raw.Name, StartedAt: startedAt}
		case gateway.ActivityListening:
			return &State{
				Kind:      KindMusic,
				Artist:    raw.Details,
				Song:      raw.Name,
				Album:     raw.Assets.LargeText,
				StartedAt: startedAt,
			}
		case gateway.ActivityStreaming:
			return &State{
				Kind:      KindStreaming,
				Platform:  raw.Name,
				Title:     raw.Details,
				URL:       raw.URL,
				StartedAt: startedAt,
			}
		case gateway.ActivityWatching:
			return &State{
				Kind:      KindWatching,
				Title:     raw.Name,
				Platform:  raw.Details,
				StartedAt: startedAt,
			}
		case gateway.ActivityCustom:
			return &State{
				Kind:      KindCustom,
				Name:      raw.Name,
				StateText: raw.State,
				StartedAt: startedAt,
			}
		case gateway.ActivityCompeting:
			return &State{
				Kind:      KindCompeting,
				Name:      raw.Name,
				Venue:     raw.Details,
				StartedAt: startedAt,
			}
		default:
			// 未知活动类型直接跳过
		}
	}
	return nil
}

// Same 判断两个活动是否为同一个。只比较各类型的身份字段，
// 附属字段（专辑封面、进度等）变动不算新活动，避免同一活动的噪声更新反复触发。
func Same(old, new *State) bool {
	if old == nil && new == nil {
		return true
	}
	if old == nil || new == nil {
		return false
	}
	if old.Kind != new.Kind {
		return false
	}

	switch old.Kind {
	case KindGame:
		return old.Name == new.Name
	case KindMusic:
		return old.Artist == new.Artist && old.Song == new.Song
	case KindStreaming:
		return old.Platform == new.Platform && old.Title == new.Title
	case KindWatching:
		return old.Title == new.Title && old.Platform == new.Platform
	case KindCustom:
		return old.Name == new.Name && old.StateText == new.StateText
	case KindCompeting:
		return old.Name == new.Name && old.Venue == new.Venue
	}
	return false
}

// TriggerValue 取用于内容检索的展示串
func (s *State) TriggerValue() string {
	if s == nil {
		return ""
	}
	switch s.Kind {
	case KindGame, KindCustom, KindCompeting:
		return s.Name
	case KindMusic:
		return s.Artist
	case KindStreaming, KindWatching:
		return s.Title
	}
	return ""
}
