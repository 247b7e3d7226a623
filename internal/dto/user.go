package dto

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MANAGER EMPLOYEE"`
}

// ListUsersQuery filters the user listing.
type ListUsersQuery struct {
	Role   string `form:"role"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
