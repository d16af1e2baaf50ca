package attendance

type AttendanceResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	AttendanceDate string `json:"attendance_date"`
	Status         string `json:"status"`
}
