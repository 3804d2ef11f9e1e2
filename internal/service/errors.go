package service

import "fmt"

// Коды бизнес-ошибок ядра
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicateTaskName = "DUPLICATE_TASK_NAME"
	CodeSyncedReadonly    = "SYNCED_READONLY"
	CodeSessionActive     = "SESSION_ACTIVE"
	CodeExternalSource    = "EXTERNAL_SOURCE"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id any) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewDuplicateTaskName(name string) *BusinessError {
	return &BusinessError{
		Code:    CodeDuplicateTaskName,
		Message: fmt.Sprintf("Задача с именем '%s' уже зарегистрирована", name),
		Details: map[string]any{
			"name": name,
		},
	}
}

// NewSyncedReadonly - попытка изменить или удалить запись,
// синхронизированную из Google Calendar
func NewSyncedReadonly(scheduleID int64) *BusinessError {
	return &BusinessError{
		Code:    CodeSyncedReadonly,
		Message: "Синхронизированное расписание нельзя изменять или удалять",
		Details: map[string]any{
			"schedule_id": scheduleID,
		},
	}
}

// NewSessionActive - у пользователя уже есть незавершённая запись
func NewSessionActive(userID, recordID int64) *BusinessError {
	return &BusinessError{
		Code:    CodeSessionActive,
		Message: "У пользователя уже есть активная запись",
		Details: map[string]any{
			"user_id":   userID,
			"record_id": recordID,
		},
	}
}

func NewExternalSourceError(err error) *BusinessError {
	return &BusinessError{
		Code:    CodeExternalSource,
		Message: "Не удалось получить события внешнего календаря",
		Err:     err,
	}
}
