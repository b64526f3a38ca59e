package errors

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

const (
	CategoryDatabase   = "database"
	CategoryCache      = "cache"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryUnknown    = "unknown"
)

// production-safe wording per category
var categoryMessages = map[string]string{
	CategoryDatabase:   "database operation failed",
	CategoryCache:      "cache operation failed",
	CategoryNetwork:    "connection error occurred",
	CategoryValidation: "validation failed",
	CategoryNotFound:   "resource not found",
	CategoryTimeout:    "request timed out",
	CategoryUnknown:    "an error occurred",
}

// substring fallbacks, checked in order
var keywordCategories = []struct {
	category string
	words    []string
}{
	{CategoryTimeout, []string{"timeout", "deadline"}},
	{CategoryNotFound, []string{"not found", "no rows"}},
	{CategoryDatabase, []string{"sql", "postgres", "database", "sqlite"}},
	{CategoryCache, []string{"redis"}},
	{CategoryNetwork, []string{"connection", "network", "dial"}},
	{CategoryValidation, []string{"validation", "binding", "invalid", "required"}},
}

func isProduction() bool {
	return os.Getenv("ENVIRONMENT") == "production"
}

func categorize(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &pgErr):
		return CategoryDatabase
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return CategoryNotFound
	case errors.Is(err, redis.Nil):
		return CategoryCache
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CategoryTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, kc := range keywordCategories {
		for _, w := range kc.words {
			if strings.Contains(msg, w) {
				return kc.category
			}
		}
	}

	return CategoryUnknown
}

// category plus the message safe to show; raw text outside production
func classifyError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{CategoryUnknown, ""}
	}

	category := categorize(err)
	if isProduction() {
		return ErrorInfo{category, categoryMessages[category]}
	}

	return ErrorInfo{category, err.Error()}
}
