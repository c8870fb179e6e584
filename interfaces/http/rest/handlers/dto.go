package handlers

import (
	"time"

	"filegraph/domain/core/entities"
)

// PersonResponse is the wire representation of a person.
type PersonResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// FileResponse is the wire representation of a file. Deleted files appear in
// listings with the deleted flag set so callers can partition them.
type FileResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Owner       string `json:"owner"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Deleted     bool   `json:"deleted"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	DeletedAt   string `json:"deleted_at,omitempty"`
}

// InteractionResponse is one history event.
type InteractionResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Actor     string `json:"actor"`
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
}

func toPersonResponse(p *entities.Person) PersonResponse {
	return PersonResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Email:     p.Email(),
		CreatedAt: p.CreatedAt().Format(time.RFC3339),
	}
}

func toPersonResponses(persons []*entities.Person) []PersonResponse {
	out := make([]PersonResponse, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonResponse(p))
	}
	return out
}

func toFileResponse(f *entities.File) FileResponse {
	resp := FileResponse{
		ID:          f.ID(),
		Filename:    f.Filename(),
		Owner:       f.OwnerName(),
		Size:        f.Size(),
		ContentType: f.ContentType(),
		Deleted:     f.Deleted(),
		CreatedAt:   f.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   f.UpdatedAt().Format(time.RFC3339),
	}
	if f.Deleted() && !f.DeletedAt().IsZero() {
		resp.DeletedAt = f.DeletedAt().Format(time.RFC3339)
	}
	return resp
}

func toFileResponses(files []*entities.File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return out
}

func toInteractionResponses(interactions []entities.Interaction) []InteractionResponse {
	out := make([]InteractionResponse, 0, len(interactions))
	for _, in := range interactions {
		out = append(out, InteractionResponse{
			ID:        in.ID,
			Type:      string(in.Type),
			Actor:     in.Actor,
			Filename:  in.Filename,
			Timestamp: in.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return out
}
