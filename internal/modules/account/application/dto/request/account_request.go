package request

type RegisterAccountRequest struct {
	Username              string `json:"username" binding:"required"`
	Token                 string `json:"token" binding:"required"`
	AutoReconnect         *bool  `json:"auto_reconnect"`
	StatusIntervalSeconds int    `json:"status_interval_seconds"`
}

type UpdateSettingsRequest struct {
	AutoReconnect         bool `json:"auto_reconnect"`
	StatusIntervalSeconds int  `json:"status_interval_seconds" binding:"required,min=5"`
}

type UpsertPreferenceRequest struct {
	FriendId       string   `json:"friend_id" binding:"required"`
	EnabledTypes   []string `json:"enabled_types"`
	Blacklisted    bool     `json:"blacklisted"`
	StartHour      *int     `json:"start_hour"`
	EndHour        *int     `json:"end_hour"`
	ContentEnabled *bool    `json:"content_enabled"`
}
