package preferences

// Preferences holds a user's UI and notification settings
type Preferences struct {
	UserID               int64  `json:"user_id"`
	DarkMode             bool   `json:"dark_mode"`
	DefaultTimeframe     string `json:"default_timeframe"`
	DefaultChartType     string `json:"default_chart_type"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// Update carries a partial preferences change. Nil fields are left
// untouched.
type Update struct {
	DarkMode             *bool   `json:"dark_mode,omitempty"`
	DefaultTimeframe     *string `json:"default_timeframe,omitempty"`
	DefaultChartType     *string `json:"default_chart_type,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

// IsEmpty reports whether the update changes anything
func (u Update) IsEmpty() bool {
	return u.DarkMode == nil &&
		u.DefaultTimeframe == nil &&
		u.DefaultChartType == nil &&
		u.NotificationsEnabled == nil
}

// Fields lists the names of the fields the update sets
func (u Update) Fields() []string {
	var fields []string
	if u.DarkMode != nil {
		fields = append(fields, "dark_mode")
	}
	if u.DefaultTimeframe != nil {
		fields = append(fields, "default_timeframe")
	}
	if u.DefaultChartType != nil {
		fields = append(fields, "default_chart_type")
	}
	if u.NotificationsEnabled != nil {
		fields = append(fields, "notifications_enabled")
	}
	return fields
}
