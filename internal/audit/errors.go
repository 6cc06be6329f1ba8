package audit

import (
	"go.uber.org/zap"
)

// GenericErrorMessage — то, что видит пользователь в production вместо текста ошибки.
const GenericErrorMessage = "An error occurred. Please try again."

// SafeMessage журналирует ошибку компонента и возвращает текст, безопасный для показа.
// В production детали ошибки наружу не отдаются.
func (l *Logger) SafeMessage(component string, err error, production bool) string {
	if err == nil {
		return ""
	}
	if l != nil {
		l.zl.Error("Security: Error in "+component,
			zap.Error(err),
			zap.Stack("stack"),
			zap.String("timestamp", l.now().UTC().Format(timestampLayout)),
		)
	}
	if production {
		return GenericErrorMessage
	}
	return err.Error()
}
