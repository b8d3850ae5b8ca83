package mapper

import (
	"ai-studynotes-core/internal/dto"
	"ai-studynotes-core/internal/entity"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToResponse(n *entity.Note) *dto.NoteResponse {
	if n == nil {
		return nil
	}

	return &dto.NoteResponse{
		Id:                n.Id,
		Filename:          n.Filename,
		Status:            n.Status,
		ThumbnailURL:      n.ThumbnailURL,
		OriginalImageURL:  n.OriginalImageURL,
		Summary:           n.Summary,
		Quiz:              n.Quiz,
		Explanation:       n.Explanation,
		AdditionalContent: n.AdditionalContent,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func (m *NoteMapper) ToResponses(notes []*entity.Note) []*dto.NoteResponse {
	responses := make([]*dto.NoteResponse, len(notes))
	for i, n := range notes {
		responses[i] = m.ToResponse(n)
	}
	return responses
}

func (m *NoteMapper) ToAcceptedItem(n *entity.Note) dto.UploadAcceptedItem {
	return dto.UploadAcceptedItem{
		Id:       n.Id,
		Filename: n.Filename,
		Status:   n.Status,
	}
}
