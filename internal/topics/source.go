package topics

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNoTopics = errors.New("source returned no topics")

// Source yields an ordered list of topics.
type Source interface {
	Name() string
	Topics(ctx context.Context) ([]string, error)
}

// FileSource reads a CSV file (header row skipped, text in the second column when present)
// or a plain text file with one topic per line and '#' comments.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file:" + f.Path }

func (f FileSource) Topics(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		return readCSV(file)
	}

	var out []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

func readCSV(file *os.File) ([]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[0])
		if len(row) >= 2 {
			text = strings.TrimSpace(row[1])
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// Topic is a row of the topics table.
type Topic struct {
	ID       uint   `gorm:"primaryKey"`
	Text     string `gorm:"not null;uniqueIndex"`
	Position int    `gorm:"not null;default:0"`
}

// DBSource loads topics from Postgres ordered by position.
type DBSource struct {
	DB *gorm.DB
}

// OpenDB connects to Postgres with gorm's own logging silenced.
func OpenDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func (d DBSource) Name() string { return "postgres" }

func (d DBSource) Topics(ctx context.Context) ([]string, error) {
	if d.DB == nil {
		return nil, errors.New("db connection is nil")
	}
	var out []string
	err := d.DB.WithContext(ctx).
		Model(&Topic{}).
		Where("text <> ''").
		Order("position, id").
		Pluck("text", &out).Error
	return out, err
}

// Load tries each source in order and builds a pool from the first that yields topics.
// When none does, the built-in list is used; startup never fails on a missing topic source.
func Load(ctx context.Context, log *zap.Logger, sources ...Source) *Pool {
	var errs error
	for _, src := range sources {
		list, err := src.Topics(ctx)
		if err == nil && NewPool(list).Len() == 0 {
			err = ErrNoTopics
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		pool := NewPool(list)
		log.Info("topics loaded", zap.String("source", src.Name()), zap.Int("count", pool.Len()))
		return pool
	}

	if errs != nil {
		log.Warn("topic sources unavailable, using built-in list", zap.Error(errs))
	}
	pool := NewPool(Builtin)
	log.Info("topics loaded", zap.String("source", "builtin"), zap.Int("count", pool.Len()))
	return pool
}
