package leave

type CreateApplicationRequest struct {
	Reason string `json:"reason" binding:"required"`
	Body   string `json:"body" binding:"required"`
}

type ApplicationResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
	Body       string `json:"body"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}
