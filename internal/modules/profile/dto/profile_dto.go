package dto

type UpdateProfileInput struct {
	Name    *string  `json:"name,omitempty" binding:"omitempty,min=3,max=100"`
	Bio     *string  `json:"bio,omitempty" binding:"omitempty,max=500"`
	DNI     *string  `json:"dni,omitempty" binding:"omitempty,max=20"`
	Careers []string `json:"careers,omitempty"`
	Year    *int     `json:"year,omitempty" binding:"omitempty,min=1,max=10"`
}
