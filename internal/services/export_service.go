package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

const usersSheet = "Users"

var rosterHeader = []interface{}{"ID", "Name", "Email", "Role", "Approved", "Enrolled Courses", "Completion", "Created At"}

type exportService struct {
	users  UserService
	logger *slog.Logger
}

func NewExportService(users UserService, logger *slog.Logger) ExportService {
	return &exportService{
		users:  users,
		logger: logger,
	}
}

// ExportUsers writes every user to a single-sheet XLSX workbook, one row per user
func (s *exportService) ExportUsers(ctx context.Context) ([]byte, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	index, err := f.NewSheet(usersSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SetSheetRow(usersSheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, user := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := rosterRow(user)
		if err := f.SetSheetRow(usersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row for user %s: %w", user.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("User roster exported", "rows", len(users))
	return buf.Bytes(), nil
}

func rosterRow(user *models.User) []interface{} {
	courses := make([]string, 0, len(user.EnrolledCourses))
	statuses := make([]string, 0, len(user.EnrolledCourses))
	for _, e := range user.EnrolledCourses {
		courses = append(courses, e.Course)
		statuses = append(statuses, e.Completed)
	}

	approved := "no"
	if user.IsApproved {
		approved = "yes"
	}

	createdAt := ""
	if !user.CreatedAt.IsZero() {
		createdAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}

	return []interface{}{
		user.ID,
		user.Name,
		user.Email,
		string(user.Role),
		approved,
		strings.Join(courses, ", "),
		strings.Join(statuses, ", "),
		createdAt,
	}
}
