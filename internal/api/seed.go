package api

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/taufiqulumam/task-management/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedProject struct {
	Name        string
	Description string
	Color       string
	OwnerIdx    int
}

type seedTask struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	ProjectIdx  int
	CreatorIdx  int
	AssigneeIdx int
}

// SeedDemoData 初始化演示数据：四个用户、六个项目及一批任务和评论。
// 以首个演示用户是否存在作为幂等判断，已存在则直接跳过。
func (s *Server) SeedDemoData(ctx context.Context) error {
	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", "alice@example.com").First(&existing).Error
	if err == nil {
		s.logger.Info("demo data already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []model.User{
		{Name: "Alice Johnson", Email: "alice@example.com", Password: string(hash)},
		{Name: "Bob Smith", Email: "bob@example.com", Password: string(hash)},
		{Name: "Charlie Brown", Email: "charlie@example.com", Password: string(hash)},
		{Name: "Diana Prince", Email: "diana@example.com", Password: string(hash)},
	}
	for i := range users {
		if err := s.db.WithContext(ctx).Create(&users[i]).Error; err != nil {
			return err
		}
	}

	projectsData := []seedProject{
		{"Website Redesign", "Complete redesign of company website with modern UI/UX", "#3B82F6", 0},
		{"Mobile App Development", "Native mobile app for iOS and Android", "#10B981", 0},
		{"API Integration", "Integrate third-party APIs for payment and authentication", "#8B5CF6", 1},
		{"Database Optimization", "Optimize database queries and implement caching", "#F59E0B", 1},
		{"Marketing Campaign", "Q4 digital marketing campaign across all channels", "#EF4444", 2},
		{"Security Audit", "Comprehensive security audit and penetration testing", "#EC4899", 3},
	}
	projects := make([]model.Project, 0, len(projectsData))
	for _, p := range projectsData {
		proj := model.Project{
			Name:        p.Name,
			Description: p.Description,
			Color:       p.Color,
			OwnerID:     users[p.OwnerIdx].ID,
		}
		if err := s.db.WithContext(ctx).Create(&proj).Error; err != nil {
			return err
		}
		projects = append(projects, proj)
	}

	tasksData := []seedTask{
		{"Design homepage mockup", "Create high-fidelity mockup for new homepage design", model.StatusDone, model.PriorityHigh, 0, 0, 0},
		{"Implement responsive navigation", "Build responsive navigation component with mobile menu", model.StatusInProgress, model.PriorityHigh, 0, 0, 1},
		{"Setup color palette and typography", "Define design system colors and font families", model.StatusDone, model.PriorityMedium, 0, 0, 0},
		{"Create contact form", "Build and validate contact form with email integration", model.StatusTodo, model.PriorityMedium, 0, 0, 1},
		{"Setup mobile project scaffolding", "Initialize mobile project with required dependencies", model.StatusDone, model.PriorityUrgent, 1, 0, 1},
		{"Design app navigation flow", "Create navigation structure and screen flow", model.StatusInProgress, model.PriorityHigh, 1, 0, 0},
		{"Implement authentication screens", "Build login, register, and forgot password screens", model.StatusInReview, model.PriorityHigh, 1, 0, 2},
		{"Add push notifications", "Integrate cloud messaging for push notifications", model.StatusTodo, model.PriorityMedium, 1, 0, 3},
		{"Research payment gateway options", "Compare Stripe, PayPal, and other payment providers", model.StatusDone, model.PriorityHigh, 2, 1, 1},
		{"Integrate Stripe payments", "Implement Stripe checkout and webhook handling", model.StatusInProgress, model.PriorityUrgent, 2, 1, 2},
		{"Setup OAuth authentication", "Implement Google and GitHub OAuth login", model.StatusTodo, model.PriorityHigh, 2, 1, 3},
		{"Analyze slow queries", "Identify and document all queries taking over 100ms", model.StatusDone, model.PriorityHigh, 3, 1, 1},
		{"Add database indexes", "Create indexes for frequently queried columns", model.StatusInProgress, model.PriorityHigh, 3, 1, 0},
		{"Implement Redis caching", "Setup Redis for caching frequently accessed data", model.StatusInReview, model.PriorityMedium, 3, 1, 2},
		{"Create social media calendar", "Plan content schedule for all social platforms", model.StatusDone, model.PriorityHigh, 4, 2, 2},
		{"Design ad creatives", "Create banner ads and promotional graphics", model.StatusInProgress, model.PriorityHigh, 4, 2, 3},
		{"Setup email campaigns", "Configure automated email sequences", model.StatusTodo, model.PriorityMedium, 4, 2, 0},
		{"Launch search ads campaign", "Setup and launch PPC campaigns", model.StatusTodo, model.PriorityUrgent, 4, 2, 2},
		{"Conduct vulnerability scanning", "Run automated security scans on all systems", model.StatusDone, model.PriorityUrgent, 5, 3, 3},
		{"Review authentication mechanisms", "Audit all auth flows and token handling", model.StatusInProgress, model.PriorityUrgent, 5, 3, 1},
		{"Test API endpoints for vulnerabilities", "Perform penetration testing on all API endpoints", model.StatusInReview, model.PriorityHigh, 5, 3, 0},
		{"Document security findings", "Create comprehensive security audit report", model.StatusTodo, model.PriorityHigh, 5, 3, 3},
	}

	now := time.Now()
	tasks := make([]model.Task, 0, len(tasksData))
	for _, t := range tasksData {
		projectID := projects[t.ProjectIdx].ID
		assigneeID := users[t.AssigneeIdx].ID
		due := now.Add(time.Duration(rand.Intn(30*24)) * time.Hour)
		task := model.Task{
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     &due,
			ProjectID:   &projectID,
			AssigneeID:  &assigneeID,
			CreatedByID: users[t.CreatorIdx].ID,
		}
		if task.Status == model.StatusDone {
			completed := now
			task.CompletedAt = &completed
		}
		if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
			return err
		}
		tasks = append(tasks, task)
	}

	comments := []model.Comment{
		{Content: "Great work on this! The design looks amazing.", TaskID: tasks[0].ID, AuthorID: users[1].ID},
		{Content: "I have a few suggestions for the color palette. Let's discuss.", TaskID: tasks[2].ID, AuthorID: users[2].ID},
		{Content: "The authentication flow is working perfectly now!", TaskID: tasks[6].ID, AuthorID: users[0].ID},
		{Content: "Found some performance issues with the current implementation.", TaskID: tasks[12].ID, AuthorID: users[1].ID},
	}
	for i := range comments {
		if err := s.db.WithContext(ctx).Create(&comments[i]).Error; err != nil {
			return err
		}
	}

	s.logger.Info("demo data seeded",
		"users", len(users), "projects", len(projects), "tasks", len(tasks), "comments", len(comments))
	return nil
}
