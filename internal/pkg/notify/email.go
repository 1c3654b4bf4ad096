package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taufiqulumam/task-management/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件通知。
//
// SMTP 未配置时发送会被静默跳过（接口仍会把重置链接直接返回给调用方，
// 邮件只是演示环境之外的补充通道）。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPasswordReset 发送密码重置链接邮件。
func (n *EmailNotifier) SendPasswordReset(ctx context.Context, toEmail string, resetLink string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("email config missing, skip password reset mail")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		n.logger.Warn("email recipient empty, skip password reset mail")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[TaskBoard] 密码重置")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>TaskBoard 密码重置</h2>
    <p>点击下面的链接重置你的密码：</p>
    <p><a href="%s">%s</a></p>
    <p>链接有效期 1 小时。如果不是你本人操作，请忽略这封邮件。</p>
  </div>
</body>
</html>`, resetLink, resetLink)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("password reset email sent", slog.String("to", toEmail))
	return nil
}

// SendDueReminder 发送任务到期提醒邮件。
func (n *EmailNotifier) SendDueReminder(ctx context.Context, toEmail string, taskTitle string, dueAt time.Time) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("email config missing, skip due reminder mail")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		n.logger.Warn("email recipient empty, skip due reminder mail")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[TaskBoard] 任务即将到期: %s", taskTitle))

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>任务即将到期</h2>
    <p>任务 <strong>%s</strong> 将于 %s 到期，请及时处理。</p>
  </div>
</body>
</html>`, taskTitle, dueAt.Format("2006-01-02 15:04"))
	m.SetBody("text/html", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("due reminder email sent", slog.String("to", toEmail), slog.String("task", taskTitle))
	return nil
}
