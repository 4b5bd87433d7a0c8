// Package archive is the backup archive: an append-only history of full
// ledger snapshots stored as timestamped JSON objects in a bucket.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPrefix = "estoque/"

	fileNamePrefix = "backup_estoque_"
	fileNameLayout = "2006-01-02_15-04-05"
	// listed keys must contain this marker
	backupMarker = "backup"
)

// Plan fixes the identity of a backup before it is written, so an
// asynchronous writer can report the final location up front.
type Plan struct {
	ID          string
	FileName    string
	DownloadURL string
	At          time.Time
}

// Service stores, lists and deletes backups under a fixed key prefix.
type Service struct {
	bucket    Bucket
	prefix    string
	publicURL string
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used to name new backups.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the archive. publicURL is the public base of the bucket;
// when empty, download URLs point at the server download route instead.
func NewService(bucket Bucket, prefix, publicURL string, opts ...Option) *Service {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Service{
		bucket:    bucket,
		prefix:    prefix,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName names a backup taken at t. id disambiguates backups planned in
// the same millisecond. Names sort lexicographically by time.
func FileName(t time.Time, id string) string {
	t = t.UTC()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s%s_%03d_%s.json", fileNamePrefix, t.Format(fileNameLayout), t.Nanosecond()/int(time.Millisecond), id)
}

// DisplayName strips the fixed decorations from a backup file name.
func DisplayName(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, fileNamePrefix), ".json")
}

// DownloadURL is where clients fetch the named backup.
func (s *Service) DownloadURL(fileName string) string {
	if s.publicURL == "" {
		return "/api/backup/" + fileName
	}
	return s.publicURL + "/" + s.prefix + fileName
}

// Plan reserves a new backup name at the current time.
func (s *Service) Plan() Plan {
	at := s.now()
	id := uuid.NewString()
	name := FileName(at, id)
	return Plan{ID: id, FileName: name, DownloadURL: s.DownloadURL(name), At: at}
}

// NewDocument wraps a snapshot with the backup metadata.
func NewDocument(snapshot model.Ledger, actor string, ts time.Time, automatic bool) model.BackupDocument {
	if snapshot.Products == nil {
		snapshot.Products = []model.Product{}
	}
	if snapshot.Logs == nil {
		snapshot.Logs = []model.MovementLog{}
	}
	return model.BackupDocument{
		System:     model.SystemName,
		Version:    model.SystemVersion,
		BackupDate: ts.UTC().Format(time.RFC3339Nano),
		BackedUpBy: actor,
		Automatic:  automatic,
		Data:       snapshot,
		Totals:     snapshot.Totals(),
	}
}

// Store writes a new backup object and returns where it lives.
func (s *Service) Store(ctx context.Context, snapshot model.Ledger, actor string, ts time.Time) (model.StoredBackup, error) {
	return s.Write(ctx, s.Plan(), NewDocument(snapshot, actor, ts, false))
}

// Write stores doc under a previously reserved plan.
func (s *Service) Write(ctx context.Context, plan Plan, doc model.BackupDocument) (model.StoredBackup, error) {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return model.StoredBackup{}, fmt.Errorf("encode backup: %w", err)
	}
	if err := s.bucket.Put(ctx, s.prefix+plan.FileName, body, "application/json"); err != nil {
		return model.StoredBackup{}, fmt.Errorf("store backup %s: %w", plan.FileName, err)
	}
	log.Info().
		Str("file", plan.FileName).
		Str("actor", doc.BackedUpBy).
		Int("products", doc.Totals.Products).
		Int("logs", doc.Totals.Logs).
		Msg("backup stored")
	return model.StoredBackup{
		ID:          plan.ID,
		FileName:    plan.FileName,
		DownloadURL: plan.DownloadURL,
		StoredAt:    s.now(),
	}, nil
}

// List returns stored backups, most recent first. A bucket failure yields an
// empty list; callers use the health check to tell "none" from "down".
func (s *Service) List(ctx context.Context) []model.BackupInfo {
	objects, err := s.bucket.List(ctx, s.prefix)
	if err != nil {
		log.Warn().Err(err).Msg("backup listing failed")
		return []model.BackupInfo{}
	}

	out := make([]model.BackupInfo, 0, len(objects))
	for _, o := range objects {
		if !strings.Contains(o.Key, backupMarker) {
			continue
		}
		name := strings.TrimPrefix(o.Key, s.prefix)
		out = append(out, model.BackupInfo{
			Name:        name,
			DisplayName: DisplayName(name),
			Size:        o.Size,
			CreatedAt:   o.LastModified,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name > out[j].Name
	})
	return out
}

// Latest returns the most recent backup, if any.
func (s *Service) Latest(ctx context.Context) (model.BackupPointer, bool) {
	list := s.List(ctx)
	if len(list) == 0 {
		return model.BackupPointer{}, false
	}
	b := list[0]
	return model.BackupPointer{
		FileName:    b.Name,
		DownloadURL: s.DownloadURL(b.Name),
		CreatedAt:   b.CreatedAt,
		Size:        b.Size,
	}, true
}

// Delete removes a backup object.
func (s *Service) Delete(ctx context.Context, fileName string) error {
	if err := validName(fileName); err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, s.prefix+fileName); err != nil {
		return fmt.Errorf("delete backup %s: %w", fileName, err)
	}
	log.Info().Str("file", fileName).Msg("backup deleted")
	return nil
}

// Open returns the raw JSON of a backup.
func (s *Service) Open(ctx context.Context, fileName string) ([]byte, error) {
	if err := validName(fileName); err != nil {
		return nil, err
	}
	body, err := s.bucket.Get(ctx, s.prefix+fileName)
	if err != nil {
		return nil, fmt.Errorf("open backup %s: %w", fileName, err)
	}
	return body, nil
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return apierror.Invalid("fileName", "is not a valid backup name")
	}
	return nil
}

// DecodeDocument parses a backup document. The snapshot must carry a
// products array under data; logs may be absent.
func DecodeDocument(body []byte) (model.BackupDocument, error) {
	var probe struct {
		Data *struct {
			Products json.RawMessage `json:"products"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return model.BackupDocument{}, fmt.Errorf("decode backup: %v: %w", err, apierror.ErrInvalidFormat)
	}
	if probe.Data == nil || len(probe.Data.Products) == 0 || probe.Data.Products[0] != '[' {
		return model.BackupDocument{}, fmt.Errorf("backup has no data.products array: %w", apierror.ErrInvalidFormat)
	}

	var doc model.BackupDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.BackupDocument{}, fmt.Errorf("decode backup: %v: %w", err, apierror.ErrInvalidFormat)
	}
	if doc.Data.Logs == nil {
		doc.Data.Logs = []model.MovementLog{}
	}
	return doc, nil
}
