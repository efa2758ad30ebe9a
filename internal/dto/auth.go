package dto

type RegisterRequestDTO struct {
	FullName     string `json:"full_name" example:"Ann Lee"`
	Phone        string `json:"phone" example:"01700000000"`
	Username     string `json:"username,omitempty" example:"ann"`
	Password     string `json:"password" example:"secret123"`
	ReferralCode string `json:"referral_code,omitempty" example:"AB12CD34"`
}

type LoginRequestDTO struct {
	Login    string `json:"login" example:"01700000000"`
	Password string `json:"password" example:"secret123"`
}

type AdminLoginRequestDTO struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"admin123"`
}

type TokenResponseDTO struct {
	Message string `json:"message" example:"User successfully authenticated"`
	Token   string `json:"token"`
}

type ChangePasswordRequestDTO struct {
	CurrentPassword string `json:"current_password" example:"secret123"`
	NewPassword     string `json:"new_password" example:"secret456"`
	ConfirmPassword string `json:"confirm_password" example:"secret456"`
}

type ChangeUsernameRequestDTO struct {
	Username string `json:"username" example:"ann"`
}

type ResetPasswordRequestDTO struct {
	NewPassword string `json:"new_password" example:"secret456"`
}
