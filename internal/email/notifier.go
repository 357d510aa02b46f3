package email

import (
	"context"
	"log/slog"

	"github.com/kichiro01/ToPick-api/internal/config"
	"github.com/kichiro01/ToPick-api/internal/i18n"
	"github.com/kichiro01/ToPick-api/internal/model"
)

type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// MailRecorder counts delivery results.
type MailRecorder interface {
	MailSent(kind string, err error)
}

// Notifier composes contact and report mails addressed to the operator.
type Notifier struct {
	sender   MailSender
	operator string
	locale   string
	prefix   string
	logger   *slog.Logger
	recorder MailRecorder
}

func NewNotifier(sender MailSender, cfg config.MailConfig, logger *slog.Logger, recorder MailRecorder) *Notifier {
	return &Notifier{
		sender:   sender,
		operator: cfg.Address,
		locale:   cfg.Locale,
		prefix:   cfg.SubjectPrefix,
		logger:   logger,
		recorder: recorder,
	}
}

func (n *Notifier) SendContact(ctx context.Context, userID int64, text string) error {
	content := i18n.ContactEmail(n.locale, userID, text)
	return n.deliver(ctx, "contact", content, "user_id", userID)
}

func (n *Notifier) SendReport(ctx context.Context, userID int64, reasonCode, reportContent string, list model.MyList) error {
	content := i18n.ReportEmail(n.locale, userID, reasonCode, reportContent, i18n.ReportedList{
		ID:        list.ID,
		OwnerID:   list.UserID,
		Title:     list.Title,
		Topics:    list.Topic.Items,
		CreatedAt: list.CreatedAt,
		UpdatedAt: list.UpdatedAt,
	})
	return n.deliver(ctx, "report", content, "user_id", userID, "my_list_id", list.ID, "reason_code", reasonCode)
}

func (n *Notifier) deliver(ctx context.Context, kind string, content i18n.EmailContent, attrs ...any) error {
	err := n.sender.Send(ctx, n.operator, n.prefix+content.Subject, content.Text, content.HTML)
	if n.recorder != nil {
		n.recorder.MailSent(kind, err)
	}
	if err != nil {
		n.logger.ErrorContext(ctx, "Notifier: failed to send mail", append([]any{"kind", kind, "error", err}, attrs...)...)
		return err
	}
	n.logger.InfoContext(ctx, "Notifier: mail sent", append([]any{"kind", kind}, attrs...)...)
	return nil
}
