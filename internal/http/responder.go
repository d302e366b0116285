package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/course-admin/internal/application"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errInvalidCourseID     = errors.New("無効なコース ID です。")
	errInvalidItemID       = errors.New("無効なスケジュール項目 ID です。")
	errInvalidSessionID    = errors.New("無効なセッション ID です。")
	errInvalidLearnerID    = errors.New("無効な利用者 ID です。")
	errInvalidDateParam    = errors.New("日付は YYYY-MM-DD 形式で指定してください。")
	errInvalidTimestamp    = errors.New("日時は RFC 3339 形式で指定してください。")
	errMissingOrganization = errors.New("X-Organization-ID ヘッダを指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrAccessDenied):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ACCESS_DENIED",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrDuplicateEnrollment):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE_ENROLLMENT",
			Message:   "この利用者は既にコースに登録されています。",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "要求はリソースの現在の状態と競合しています。"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  details,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "コース名は必須です。"
	case "display name is required":
		return "表示名は必須です。"
	case "organization is required":
		return "組織 ID は必須です。"
	case "dayOfWeek must be between 0 and 6":
		return "曜日は 0 から 6 の整数で指定してください。"
	case "startTime must match HH:MM":
		return "開始時刻は HH:MM 形式で指定してください。"
	case "endTime must match HH:MM":
		return "終了時刻は HH:MM 形式で指定してください。"
	case "endTime must be after startTime":
		return "終了時刻は開始時刻より後である必要があります。"
	case "validityStart is required":
		return "有効期間の開始日は必須です。"
	case "validityEnd is required":
		return "有効期間の終了日は必須です。"
	case "validityEnd must not be before validityStart":
		return "有効期間の終了日は開始日以降である必要があります。"
	case "status must be one of NORMAL, CANCELLED, MOVED, TIME_CHANGED":
		return "ステータスは NORMAL, CANCELLED, MOVED, TIME_CHANGED のいずれかを指定してください。"
	case "start must be before end":
		return "終了日時は開始日時より後である必要があります。"
	case "learnerId is required":
		return "利用者 ID は必須です。"
	case "date is required":
		return "日付は必須です。"
	case "course does not exist":
		return "指定されたコースは存在しません。"
	default:
		if strings.HasPrefix(message, "unknown learner id:") {
			return "存在しない利用者 ID が指定されました: " + strings.TrimSpace(strings.TrimPrefix(message, "unknown learner id:"))
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
