package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"planvista/internal/logger"
	repo "planvista/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// NewPool создаёт пул соединений PostgreSQL, общий для всех хранилищ
func NewPool(ctx context.Context, connString string, maxConns, minConns int, idleTimeout time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	if minConns <= 0 {
		minConns = 2
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Minute * 5
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnIdleTime = idleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return pool, nil
}

// Migrate применяет SQL-миграции из каталога по порядку имён файлов
func Migrate(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	logger.Info("Repository: Применение миграций")

	files := []string{"001_init.up.sql", "002_indexes.up.sql"}
	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию "+name, err)
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			logger.Error("Repository: Не удалось применить миграцию "+name, err)
			return err
		}
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

// Down откатывает миграции в обратном порядке
func Down(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	logger.Info("Repository: Откат миграций")

	files := []string{"002_indexes.down.sql", "001_init.down.sql"}
	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию "+name, err)
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			logger.Error("Repository: Не удалось откатить миграцию "+name, err)
			return err
		}
	}

	return nil
}

// MapError переводит нарушение уникальности в доменную ошибку хранилища
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return repo.ErrDuplicate
	}
	return err
}
