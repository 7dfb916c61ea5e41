// Package smtp предоставляет транспорт до SMTP-сервера рассылки.
package smtp

import "io"

// Client — открытая сессия с SMTP-сервером после STARTTLS и AUTH.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает новую сессию на каждое письмо.
type Dialer interface {
	Connect() (Client, error)
	// Sender возвращает адрес для заголовка From и команды MAIL.
	Sender() string
}
