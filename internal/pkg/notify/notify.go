package notify

import (
	"context"
	"time"
)

// Notifier 定义通知接口。
type Notifier interface {
	// SendPasswordReset 发送密码重置链接。
	//
	// 参数:
	//   ctx: 上下文
	//   toEmail: 接收邮箱
	//   resetLink: 重置链接
	SendPasswordReset(ctx context.Context, toEmail string, resetLink string) error

	// SendDueReminder 发送任务到期提醒。
	//
	// 参数:
	//   ctx: 上下文
	//   toEmail: 接收邮箱
	//   taskTitle: 任务标题
	//   dueAt: 截止时间
	SendDueReminder(ctx context.Context, toEmail string, taskTitle string, dueAt time.Time) error
}
