package common

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteErrorResponse 在 gin 之外寫入錯誤響應（panic 恢復時使用）
func WriteErrorResponse(w http.ResponseWriter, err *CustomError, debug bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(err.Response(debug))
}
