package model

import "time"

// TaskStatus 任务状态枚举。
type TaskStatus string

// 任务状态取值。状态之间不设守卫，任意状态可以直接切换到任意状态；
// 唯一的派生规则是切入 DONE 时写入 CompletedAt、切出 DONE 时清空。
const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// TaskPriority 任务优先级枚举。
type TaskPriority string

// 任务优先级取值。
const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Statuses 返回全部任务状态（按看板列顺序）。
func Statuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled}
}

// Priorities 返回全部优先级（从低到高）。
func Priorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Project 表示一个项目（任务的容器）。
//
// 项目归属于唯一的 Owner，只有 Owner 可以读取、修改和删除。
type Project struct {
	ID        uint      `gorm:"primaryKey"` // 项目唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Name        string `gorm:"type:varchar(191);not null"` // 项目名称
	Description string // 项目描述
	Color       string `gorm:"type:varchar(16)"`  // 展示颜色（如 "#3B82F6"）
	OwnerID     uint   `gorm:"not null;index"`    // 所有者用户 ID
	Owner       User   `gorm:"foreignKey:OwnerID"`
	TeamID      *uint  // 所属团队 ID（可选，当前无团队实体）

	Tasks []Task `gorm:"foreignKey:ProjectID"` // 项目下的任务
}

// Task 表示一个任务。
//
// 任务可以挂在某个项目下（可选），可以指派给某个用户（可选），
// 创建者必填。CompletedAt 只在状态切入 DONE 时写入、切出时清空。
type Task struct {
	ID        uint      `gorm:"primaryKey"` // 任务唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Title       string       `gorm:"type:varchar(191);not null"`          // 任务标题
	Description string       // 任务描述
	Status      TaskStatus   `gorm:"type:varchar(16);default:TODO;index"` // 任务状态
	Priority    TaskPriority `gorm:"type:varchar(16);default:MEDIUM"`     // 优先级
	DueDate     *time.Time   // 截止时间（可选）
	CompletedAt *time.Time   // 完成时间（仅 DONE 状态下非空）

	ProjectID   *uint `gorm:"index"` // 所属项目 ID（可选）
	Project     *Project
	AssigneeID  *uint `gorm:"index"` // 指派用户 ID（可选）
	Assignee    *User `gorm:"foreignKey:AssigneeID"`
	CreatedByID uint  `gorm:"not null;index"` // 创建者用户 ID
	CreatedBy   User  `gorm:"foreignKey:CreatedByID"`

	Comments []Comment `gorm:"foreignKey:TaskID"` // 任务下的评论
}

// Comment 表示任务下的一条评论。
//
// 只有评论作者本人可以删除自己的评论。
type Comment struct {
	ID        uint      `gorm:"primaryKey"` // 评论唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Content  string `gorm:"type:text;not null"` // 评论内容
	TaskID   uint   `gorm:"not null;index"`     // 所属任务 ID
	Task     Task   `gorm:"foreignKey:TaskID"`
	AuthorID uint   `gorm:"not null;index"` // 作者用户 ID
	Author   User   `gorm:"foreignKey:AuthorID"`
}

// ValidStatus 判断 s 是否为合法任务状态。
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// ValidPriority 判断 p 是否为合法优先级。
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
