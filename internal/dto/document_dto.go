package dto

import "io"

type UploadDocumentRequest struct {
	SessionId string
	Filename  string      `validate:"required"`
	Reader    io.ReaderAt `validate:"required"`
	Size      int64       `validate:"gt=0"`
}

type UploadDocumentResponse struct {
	SessionId   string `json:"session_id"`
	TotalPages  int    `json:"total_pages"`
	TotalChunks int    `json:"total_chunks"`
	Message     string `json:"message"`
}

type IndexStatsResponse struct {
	VectorCount int `json:"vector_count"`
	Capacity    int `json:"capacity"`
}
