package config

import "fyne.io/fyne/v2"

// AppNotificationsEnabledKey is the key for the app notifications enabled preference
const AppNotificationsEnabledKey = "app_notifications_enabled"

// AppConfig holds the application-wide configuration
type AppConfig struct {
	prefs fyne.Preferences
}

// NewAppConfig creates a new AppConfig instance
func NewAppConfig(p fyne.Preferences) *AppConfig {
	return &AppConfig{prefs: p}
}

// GetAppNotificationsEnabled returns whether system notifications are enabled
func (c *AppConfig) GetAppNotificationsEnabled() bool {
	return c.prefs.BoolWithFallback(AppNotificationsEnabledKey, true)
}

// SetAppNotificationsEnabled sets whether system notifications are enabled
func (c *AppConfig) SetAppNotificationsEnabled(enabled bool) {
	c.prefs.SetBool(AppNotificationsEnabledKey, enabled)
}

// AppUpdateCheckEnabledKey is the key for the app update check enabled preference
const AppUpdateCheckEnabledKey = "app_update_check_enabled"

// GetUpdateCheckEnabled returns whether the application should check for updates
func (c *AppConfig) GetUpdateCheckEnabled() bool {
	return c.prefs.BoolWithFallback(AppUpdateCheckEnabledKey, true)
}

// SetUpdateCheckEnabled sets whether the application should check for updates
func (c *AppConfig) SetUpdateCheckEnabled(enabled bool) {
	c.prefs.SetBool(AppUpdateCheckEnabledKey, enabled)
}

// MonitorAPIEnabledKey is the key for the local monitor API preference
const MonitorAPIEnabledKey = "app_monitor_api_enabled"

// GetMonitorAPIEnabled returns whether the local monitor API should be served
func (c *AppConfig) GetMonitorAPIEnabled() bool {
	return c.prefs.BoolWithFallback(MonitorAPIEnabledKey, false)
}

// SetMonitorAPIEnabled sets whether the local monitor API should be served
func (c *AppConfig) SetMonitorAPIEnabled(enabled bool) {
	c.prefs.SetBool(MonitorAPIEnabledKey, enabled)
}
