package stats

type DailyStatsResponse struct {
	Date                string     `json:"date"`
	TotalHours          float64    `json:"total_hours"`
	IdleHours           float64    `json:"idle_hours"`
	IdlePercentage      float64    `json:"idle_percentage"`
	AppsUsed            []AppUsage `json:"apps_used"`
	AttendanceStatus    string     `json:"attendance_status"`
	PendingApplications int64      `json:"pending_applications"`
	CalculatedAt        *string    `json:"calculated_at,omitempty"`
}

type HistoryResponse struct {
	Days                  int                  `json:"days"`
	Rows                  []DailyStatsResponse `json:"rows"`
	AverageHours          float64              `json:"average_hours"`
	AverageIdlePercentage float64              `json:"average_idle_percentage"`
}

type UserStatsResponse struct {
	EmployeeID       string  `json:"employee_id"`
	FullName         string  `json:"full_name"`
	TotalHours       float64 `json:"total_hours"`
	IdleHours        float64 `json:"idle_hours"`
	IdlePercentage   float64 `json:"idle_percentage"`
	AttendanceStatus string  `json:"attendance_status"`
}

type UserHistoryResponse struct {
	EmployeeID string               `json:"employee_id"`
	FullName   string               `json:"full_name"`
	Rows       []DailyStatsResponse `json:"rows"`
	TopApps    []AppUsage           `json:"top_apps"`
}

type WeeklyStatsResponse struct {
	WeekStart      string     `json:"week_start"`
	WeekEnd        string     `json:"week_end"`
	TotalHours     float64    `json:"total_hours"`
	IdleHours      float64    `json:"idle_hours"`
	IdlePercentage float64    `json:"idle_percentage"`
	AppsUsed       []AppUsage `json:"apps_used"`
	DaysWorked     int        `json:"days_worked"`
}
