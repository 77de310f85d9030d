package balance

type InitializeBalanceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Year       int    `json:"year" binding:"required,min=2000,max=2200"`
}

type RenewBalanceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	FromYear   int    `json:"from_year" binding:"required,min=2000,max=2200"`
	ToYear     int    `json:"to_year" binding:"required,min=2000,max=2200"`
}

type BalanceResponse struct {
	EmployeeID    string `json:"employee_id"`
	Category      string `json:"category"`
	Year          int    `json:"year"`
	TotalDays     string `json:"total_days"`
	UsedDays      string `json:"used_days"`
	AvailableDays string `json:"available_days"`
}
