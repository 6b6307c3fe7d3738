package notifications

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrcore/internal/platform/email"
)

const (
	TypeLeaveApproved    = "leave_approved"
	TypeLeaveRejected    = "leave_rejected"
	TypePayrollProcessed = "payroll_processed"
	TypePayslipEmailed   = "payslip_emailed"
)

type Service struct {
	DB          *pgxpool.Pool
	Mailer      email.Mailer
	DefaultFrom string
}

func New(db *pgxpool.Pool, mailer email.Mailer, from string) *Service {
	return &Service{DB: db, Mailer: mailer, DefaultFrom: from}
}

// Create stores an in-app notification and best-effort emails the user.
// Email failure is logged, never surfaced: the stored notification is the
// durable record.
func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, type, title, body)
    VALUES ($1,$2,$3,$4)
  `, userID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil {
		return nil
	}
	var to string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&to); err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if to == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, email.Message{From: s.DefaultFrom, To: to, Subject: title, Body: body}); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, ntype, title, body string
		var readAt, createdAt any
		if err := rows.Scan(&id, &ntype, &title, &body, &readAt, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":        id,
			"type":      ntype,
			"title":     title,
			"body":      body,
			"readAt":    readAt,
			"createdAt": createdAt,
		})
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now() WHERE id = $1 AND user_id = $2
  `, notificationID, userID)
	return err
}
