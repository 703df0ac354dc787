package dto

import "github.com/inkwell/coauthor/internal/domain/model"

// ProfileResponse represents the buyer profile.
type ProfileResponse struct {
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// NewProfileResponse maps a profile to its API representation.
func NewProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		FullName:  p.FullName,
		Phone:     p.Phone,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
	}
}

// ProfileRequest carries profile updates.
type ProfileRequest struct {
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}
