// Package sl содержит общие атрибуты структурированного лога slog,
// которые используют обработчики, сервисы и фоновые процессы DVS.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. Для nil возвращается
// пустой атрибут, который slog не выводит.
//
// Пример:
//
//	log.Error("failed to save daylight", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Op возвращает атрибут с именем операции вида "handlers.daylight.Get".
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// Date возвращает атрибут с календарной датой в формате YYYY-MM-DD.
func Date(date string) slog.Attr {
	return slog.String("date", date)
}

// RunID возвращает атрибут идентификатора запуска рассылки.
func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}
