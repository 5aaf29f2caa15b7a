package service

import (
	"context"
	"fmt"
	"strings"

	"gatekeeper-bot/internal/repository"
)

// ReportService renders the registry for the admin.
type ReportService struct {
	userRepo *repository.UserRepository
}

func NewReportService(userRepo *repository.UserRepository) *ReportService {
	return &ReportService{userRepo: userRepo}
}

// Render lists every user as "<id>: <user_id>" lines ordered by id.
// An empty registry renders as an empty string.
func (s *ReportService) Render(ctx context.Context) (string, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, user := range users {
		builder.WriteString(fmt.Sprintf("%d: %d\n", user.ID, user.UserID))
	}
	return builder.String(), nil
}

// Digest is the short summary sent to the admin on schedule.
func (s *ReportService) Digest(ctx context.Context) (string, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 Всего пользователей: %d", count), nil
}

// SplitMessage cuts text into chunks no longer than limit runes, breaking on
// line boundaries. A single line longer than limit is cut mid-line.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		runes := []rune(line)
		if currentLen+len(runes) > limit {
			flush()
		}
		for len(runes) > limit {
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()
	return chunks
}
