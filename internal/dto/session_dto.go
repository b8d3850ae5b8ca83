package dto

type EnsureSessionResponse struct {
	SessionId string `json:"session_id"`
}

type UploadFlagResponse struct {
	CameFromUpload bool `json:"came_from_upload"`
}
