package models

import "time"

// Subscriber — подписчик рассылки. Строки никогда не удаляются:
// отписка выставляет IsActive=false и UnsubscribedAt.
type Subscriber struct {
	ID             int        `json:"id"`
	Email          string     `json:"email"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	IsActive       bool       `json:"is_active"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

// EmailRequest — тело запросов subscribe/unsubscribe/test-email.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterJob — сообщение очереди, запускающее ежедневную рассылку.
type NewsletterJob struct {
	RunID string `json:"run_id"`
	Date  string `json:"date"`
}
