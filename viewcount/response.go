package viewcount

import (
	"encoding/json"
	"net/http"
)

type trackResponse struct {
	Success bool   `json:"success"`
	Views   *int64 `json:"views,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

type rankedItemResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Date      string `json:"date"`
	URL       string `json:"url"`
	Views     int64  `json:"views"`
	Thumbnail string `json:"thumbnail"`
}

type mostReadResponse struct {
	Success  bool                 `json:"success"`
	Data     []rankedItemResponse `json:"data"`
	Total    int                  `json:"total"`
	Limit    int                  `json:"limit"`
	Days     int                  `json:"days"`
	Category int64                `json:"category"`
}

type statsResponse struct {
	Success bool             `json:"success"`
	Totals  map[string]int64 `json:"totals"`
}

type viewsResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
	Views   int64 `json:"views"`
}

type nonceResponse struct {
	Nonce     string `json:"nonce"`
	ExpiresIn int    `json:"expires_in"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
