package model

import "time"

// User 表示系统用户。
type User struct {
	ID        uint      `gorm:"primaryKey"`                    // 用户 ID
	Email     string    `gorm:"type:varchar(191);uniqueIndex"` // 邮箱（唯一）
	Password  string    `gorm:"not null"`                      // bcrypt 哈希，绝不出现在 API 响应中
	Name      string    `gorm:"type:varchar(191)"`             // 显示名称
	Image     string    // 头像链接
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Projects      []Project `gorm:"foreignKey:OwnerID"`     // 拥有的项目
	AssignedTasks []Task    `gorm:"foreignKey:AssigneeID"`  // 被指派的任务
	CreatedTasks  []Task    `gorm:"foreignKey:CreatedByID"` // 创建的任务
	Comments      []Comment `gorm:"foreignKey:AuthorID"`    // 发表的评论
}

// PasswordResetToken 表示一次性的密码重置令牌。
//
// 同一用户最多只有一个有效令牌（新申请会删除旧令牌）；
// 令牌在兑换或过期检查时被删除，不做主动清扫。
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`                             // 记录 ID
	Token     string    `gorm:"type:varchar(191);uniqueIndex;not null"` // 随机 256 位令牌（hex 编码）
	UserID    uint      `gorm:"not null;index"`                         // 所属用户 ID
	User      User      `gorm:"foreignKey:UserID"`                      // 所属用户
	ExpiresAt time.Time `gorm:"not null"`                               // 过期时间
	CreatedAt time.Time // 创建时间
}
