package rest

import "ayosnow_backend/internal/domain"

type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Skill    *string `json:"skill"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse never carries the password. Skill is null when empty.
type UserResponse struct {
	ID    uint64  `json:"id"`
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Skill *string `json:"skill"`
}

type TestResponse struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func toUser(req RegisterRequest, role domain.Role) domain.User {
	user := domain.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	}
	if req.Skill != nil {
		user.Skill = *req.Skill
	}
	return user
}

func toUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
	if u.Skill != "" {
		skill := u.Skill
		resp.Skill = &skill
	}
	return resp
}
