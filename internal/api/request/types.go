package request

// LoginRequest is the request body for obtaining a token pair
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the request body for exchanging a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ProfileInput is the nested profile accepted at registration
type ProfileInput struct {
	Sport string `json:"sport"`
}

// RegisterRequest is the request body for registering a player, coach or manager
type RegisterRequest struct {
	Username string        `json:"username" validate:"required,max=150"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,max=72"`
	Role     string        `json:"role" validate:"required"`
	Profile  *ProfileInput `json:"profile"`
}

// RegisterParentRequest is the request body for registering a parent
type RegisterParentRequest struct {
	Username      string `json:"username" validate:"required,max=150"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,max=72"`
	ChildPlayerID string `json:"child_player_id" validate:"required"`
}

// CreateTaskRequest is the request body for creating a task
type CreateTaskRequest struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Description      string  `json:"description"`
	Players          []int64 `json:"players" validate:"min=1"`
	DueDate          *string `json:"due_date"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" validate:"omitempty,gt=0"`
}

// CompleteTaskRequest is the optional body for marking a completion
type CompleteTaskRequest struct {
	Notes *string `json:"notes"`
}

// UpdateUserRequest is the JSON body for patching a user
type UpdateUserRequest struct {
	Email               *string `json:"email" validate:"omitempty,email"`
	MembershipStartDate *string `json:"membership_start_date"`
	MembershipEndDate   *string `json:"membership_end_date"`
}
