package api

import (
	"context"
	"errors"

	"github.com/taufiqulumam/task-management/internal/model"

	"gorm.io/gorm"
)

// Relation 表示请求者与资源之间要求的关系。
type Relation string

// 资源访问关系。项目只有所有者可见可改；评论只有作者可删；
// 任务读取对所有已登录用户开放，修改和删除要求创建者或当前指派人。
const (
	RelationProjectOwner  Relation = "project_owner"
	RelationCommentAuthor Relation = "comment_author"
	RelationTaskEditor    Relation = "task_editor"
)

// ErrForbidden 表示身份有效但权限不足（403，区别于 401）。
var ErrForbidden = errors.New("forbidden")

// authorize 统一的资源访问检查。
//
// 每个实体的所有权判断都收敛到这里，避免各 handler 里重复的字段比较
// 逐渐漂移。返回 nil 放行；gorm.ErrRecordNotFound 表示资源不存在（404）；
// ErrForbidden 表示关系不满足（403）。检查失败时调用方不得执行任何变更。
func authorize(ctx context.Context, db *gorm.DB, rel Relation, id uint, userID uint) error {
	switch rel {
	case RelationProjectOwner:
		var project model.Project
		if err := db.WithContext(ctx).Select("owner_id").Where("id = ?", id).First(&project).Error; err != nil {
			return err
		}
		if project.OwnerID != userID {
			return ErrForbidden
		}
		return nil

	case RelationCommentAuthor:
		var comment model.Comment
		if err := db.WithContext(ctx).Select("author_id").Where("id = ?", id).First(&comment).Error; err != nil {
			return err
		}
		if comment.AuthorID != userID {
			return ErrForbidden
		}
		return nil

	case RelationTaskEditor:
		var task model.Task
		if err := db.WithContext(ctx).Select("created_by_id", "assignee_id").Where("id = ?", id).First(&task).Error; err != nil {
			return err
		}
		if task.CreatedByID == userID {
			return nil
		}
		if task.AssigneeID != nil && *task.AssigneeID == userID {
			return nil
		}
		return ErrForbidden
	}

	return ErrForbidden
}
