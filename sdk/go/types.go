package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ScoreSubmission is the POST body accepted by the scores endpoint.
type ScoreSubmission struct {
	PlayerName   string `json:"playerName"`
	PlayerAge    string `json:"playerAge"`
	PlayerSchool string `json:"playerSchool"`
	Score        int64  `json:"score"`
	Level        int64  `json:"level,omitempty"`
}

// RankedScore mirrors one entry of the ranked list.
type RankedScore struct {
	Rank         int       `json:"rank"`
	ID           int64     `json:"id"`
	PlayerName   string    `json:"player_name"`
	PlayerAge    string    `json:"player_age"`
	PlayerSchool string    `json:"player_school"`
	Score        int64     `json:"score"`
	Level        int64     `json:"level"`
	Date         time.Time `json:"date"`
}

// ExportDocument is a downloaded ranking export.
type ExportDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// HealthStatus describes the /health response.
type HealthStatus struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	ScoresCount int       `json:"scores_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(body, apiErr)
	return apiErr
}

func decodeJSON(resp *http.Response, target any) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyFormat is returned when no export format is given.
var ErrEmptyFormat = errors.New("export format is required")
