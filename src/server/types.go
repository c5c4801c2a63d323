package server

import (
	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/service"
)

// Wire types shared with the client package.

type ErrorResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error"`
	Code    apperr.ErrorCode `json:"code"`
	Reason  string           `json:"reason,omitempty"`
}

type OCRRequest struct {
	Image string `json:"image"`
}

type OCRResponse struct {
	Success bool `json:"success"`
	service.Recognition
}

type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type TranslateResponse = service.TranslationResult

type LookupRequest struct {
	Word string `json:"word"`
}

type LookupResponse struct {
	Success bool          `json:"success"`
	Entry   lexicon.Entry `json:"entry"`
	Display string        `json:"display"`
}

type SimilarRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit,omitempty"`
}

type SimilarResponse struct {
	Success bool     `json:"success"`
	Words   []string `json:"words"`
}

type HealthResponse struct {
	Success bool `json:"success"`
	service.Health
}
