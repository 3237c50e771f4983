package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/records"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/interchange"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/google/uuid"
)

// FieldCipher is the part of *session.Session used to seal record values.
type FieldCipher interface {
	EncryptField(plaintext string) (cryptox.Payload, error)
	DecryptField(iv, ciphertext string) (string, error)
}

// RecordService manages named secrets.
//
// Put and Get need an unlocked session. List, Delete, Export and Import only
// move ciphertext and work while locked.
type RecordService interface {
	Put(ctx context.Context, name, plaintext string) error
	Get(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]models.Record, error)
	Delete(ctx context.Context, name string) error
	Export(ctx context.Context, w io.Writer) (int, error)
	Import(ctx context.Context, r io.Reader) (int, error)
}

type recordService struct {
	repos  *client.Repositories
	cipher FieldCipher
	clock  clock.Clock
	logger logging.Logger
}

type RecordOption func(*recordService)

func WithRecordLogger(l logging.Logger) RecordOption {
	return func(s *recordService) { s.logger = l }
}

func WithRecordClock(c clock.Clock) RecordOption {
	return func(s *recordService) { s.clock = c }
}

func NewRecordService(repos *client.Repositories, cipher FieldCipher, opts ...RecordOption) RecordService {
	s := &recordService{
		repos:  repos,
		cipher: cipher,
		clock:  clock.New(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "record_service")
	return s
}

func (s *recordService) Put(ctx context.Context, name, plaintext string) error {
	if err := models.ValidateName(name); err != nil {
		return err
	}

	p, err := s.cipher.EncryptField(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt %q: %w", name, err)
	}

	rec := &models.Record{
		ID:         uuid.NewString(),
		Name:       name,
		IV:         p.IV,
		Ciphertext: p.Ciphertext,
		UpdatedAt:  s.now(),
	}
	if err := s.repos.Records.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}

	s.logger.Debug(ctx, "record stored", "name", name)
	return nil
}

func (s *recordService) Get(ctx context.Context, name string) (string, error) {
	rec, err := s.repos.Records.GetByName(ctx, name)
	if err != nil {
		return "", err
	}

	plaintext, err := s.cipher.DecryptField(rec.IV, rec.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt %q: %w", name, err)
	}
	return plaintext, nil
}

func (s *recordService) List(ctx context.Context) ([]models.Record, error) {
	return s.repos.Records.List(ctx)
}

func (s *recordService) Delete(ctx context.Context, name string) error {
	return s.repos.Records.DeleteByName(ctx, name)
}

// Export writes every record as KEY=iv:ciphertext and returns the count.
func (s *recordService) Export(ctx context.Context, w io.Writer) (int, error) {
	recs, err := s.repos.Records.List(ctx)
	if err != nil {
		return 0, err
	}

	lines := make([]interchange.Record, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, interchange.Record{Key: r.Name, IV: r.IV, Ciphertext: r.Ciphertext})
	}

	if _, err := fmt.Fprintf(w, "# zkvault export %s\n", s.now().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	if err := interchange.Write(w, lines); err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "records exported", "count", len(lines))
	return len(lines), nil
}

// Import reads records in the export format and upserts them in one
// transaction. Every line is validated first; nothing is written if any line
// is invalid. Values are not decrypted, so importing works while locked.
func (s *recordService) Import(ctx context.Context, r io.Reader) (int, error) {
	lines, err := interchange.Parse(r)
	if err != nil {
		return 0, err
	}

	now := s.now()
	recs := make([]*models.Record, 0, len(lines))
	for _, l := range lines {
		if err := models.ValidateName(l.Key); err != nil {
			return 0, fmt.Errorf("import %q: %w", l.Key, err)
		}
		if _, err := cryptox.ParsePayload(l.IV, l.Ciphertext); err != nil {
			return 0, fmt.Errorf("import %q: %w", l.Key, err)
		}
		recs = append(recs, &models.Record{
			ID:         uuid.NewString(),
			Name:       l.Key,
			IV:         l.IV,
			Ciphertext: l.Ciphertext,
			UpdatedAt:  now,
		})
	}

	err = dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		for _, rec := range recs {
			if err := repo.Upsert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving error: %w", err)
	}

	s.logger.Info(ctx, "records imported", "count", len(recs))
	return len(recs), nil
}

func (s *recordService) now() time.Time {
	return s.clock.Now().UTC()
}
