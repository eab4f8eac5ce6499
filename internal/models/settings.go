package models

// Settings keys and their built-in defaults. A default is persisted the
// first time its key is read, after which the stored value wins.
const (
	SettingDefaultCPM        = "default_cpm"
	SettingAdDisplayDuration = "ad_display_duration"
	SettingMinAdViewTime     = "min_ad_view_time"

	DefaultCPM              = 10.00
	DefaultAdDisplaySeconds = 15
	DefaultMinAdViewSeconds = 10
)

// Setting is a process-wide key/value configuration row.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
