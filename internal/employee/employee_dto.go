package employee

type CreateEmployeeRequest struct {
	FullName       string  `json:"full_name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Department     string  `json:"department" binding:"required"`
	ManagerID      *string `json:"manager_id" binding:"omitempty,uuid"`
	JoinDate       string  `json:"join_date" binding:"required"`
	EmployeeNumber string  `json:"employee_number"`
}

type UpdateEmployeeRequest struct {
	FullName   string  `json:"full_name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Department string  `json:"department" binding:"required"`
	ManagerID  *string `json:"manager_id" binding:"omitempty,uuid"`
	JoinDate   string  `json:"join_date" binding:"required"`
}

type EmployeeResponse struct {
	ID             string  `json:"id"`
	EmployeeNumber string  `json:"employee_number"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Department     string  `json:"department"`
	ManagerID      *string `json:"manager_id,omitempty"`
	ManagerName    string  `json:"manager_name,omitempty"`
	JoinDate       string  `json:"join_date"`
}
