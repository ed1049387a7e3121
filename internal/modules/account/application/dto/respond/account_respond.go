package respond

type AccountRespond struct {
	Uuid                  string `json:"uuid"`
	Username              string `json:"username"`
	AutoReconnect         bool   `json:"auto_reconnect"`
	StatusIntervalSeconds int    `json:"status_interval_seconds"`
	Enabled               bool   `json:"enabled"`
}
