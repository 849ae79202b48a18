// pkg/fill/store.go
package fill

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/merge"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// DefaultChunkSize bounds how many records load per transaction in
// large mode.
const DefaultChunkSize = 5000

const storeSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	pos        INTEGER PRIMARY KEY,
	row        INTEGER NOT NULL,
	norm_name  TEXT NOT NULL,
	norm_email TEXT NOT NULL,
	norm_phone TEXT NOT NULL,
	needs_fill INTEGER NOT NULL,
	fields     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_name  ON contacts(norm_name)  WHERE norm_name  != '';
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(norm_email) WHERE norm_email != '';
CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts(norm_phone) WHERE norm_phone != '';
`

// storeRow mirrors one contacts table row.
type storeRow struct {
	Pos       int    `db:"pos"`
	Row       int    `db:"row"`
	NormName  string `db:"norm_name"`
	NormEmail string `db:"norm_email"`
	NormPhone string `db:"norm_phone"`
	NeedsFill int    `db:"needs_fill"`
	Fields    string `db:"fields"`
}

// Store is the disk-backed variant of the filler for inputs too large
// to index in memory. The target dataset loads once, in chunks, into
// an embedded SQLite database with indices over the normalized key
// fields; auxiliary datasets then stream against it one record at a
// time.
type Store struct {
	db        *sqlx.DB
	filler    *Filler
	headers   []string
	fieldMap  model.FieldMap
	mappings  []Mapping
	chunkSize int
	logger    *zap.Logger
}

// OpenStore opens (or creates) the store database at path. Use ":memory:"
// for tests.
func OpenStore(path string, filler *Filler, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating store schema: %w", err)
	}
	return &Store{
		db:        db,
		filler:    filler,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithChunkSize overrides the per-transaction load size.
func (s *Store) WithChunkSize(n int) *Store {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// LoadTarget inserts the target dataset in fixed-size chunks. Each
// row stores its normalized key triple alongside the raw fields so
// fill passes can match without re-normalizing.
func (s *Store) LoadTarget(ds *model.Dataset, mappings []Mapping) error {
	s.headers = append([]string(nil), ds.Headers...)
	s.fieldMap = model.ResolveFieldMap(ds.Headers, s.filler.aliases)
	s.mappings = mappings

	if _, err := s.db.Exec(`DELETE FROM contacts`); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	for start := 0; start < ds.Len(); start += s.chunkSize {
		end := start + s.chunkSize
		if end > ds.Len() {
			end = ds.Len()
		}
		if err := s.loadChunk(ds.Records[start:end], start); err != nil {
			return err
		}
	}

	s.logger.Info("target loaded into store",
		zap.String("dataset", ds.Name),
		zap.Int("records", ds.Len()),
		zap.Int("chunkSize", s.chunkSize))
	return nil
}

func (s *Store) loadChunk(records []model.Record, offset int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("starting load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO contacts
		(pos, row, norm_name, norm_email, norm_phone, needs_fill, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		keys := merge.ExtractKeyFields(rec, s.fieldMap, s.filler.phoneMode)
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", rec.Row, err)
		}
		needs := 0
		if s.rowNeedsFill(rec) {
			needs = 1
		}
		if _, err := stmt.Exec(offset+i, rec.Row, keys.Name, keys.Email, keys.Phone, needs, string(fields)); err != nil {
			return fmt.Errorf("inserting row %d: %w", rec.Row, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load chunk: %w", err)
	}
	return nil
}

// FillFrom streams one auxiliary dataset against the loaded target.
// For each auxiliary record, target rows sharing a normalized name,
// email or phone are fetched through the indices; the usual two-of-
// three agreement and non-overwrite rules apply. A target row filled
// during this pass is not revisited within the same pass.
func (s *Store) FillFrom(aux *model.Dataset) (model.ChangeLog, error) {
	auxFM := model.ResolveFieldMap(aux.Headers, s.filler.aliases)
	if !auxFM.CanIdentify() {
		s.logger.Warn("skipping auxiliary source without identifying columns",
			zap.String("source", aux.Name),
			zap.Strings("headers", aux.Headers))
		return nil, nil
	}

	mappings := s.mappings
	if len(mappings) == 0 {
		mappings = RoleMappings(s.fieldMap, auxFM)
	}

	filledThisPass := make(map[int]struct{})
	var log model.ChangeLog

	for _, auxRec := range aux.Records {
		auxKeys := merge.ExtractKeyFields(auxRec, auxFM, s.filler.phoneMode)
		if auxKeys.Name == "" && auxKeys.Email == "" && auxKeys.Phone == "" {
			continue
		}

		rows, err := s.lookup(auxKeys)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			if _, done := filledThisPass[row.Pos]; done {
				continue
			}
			rec, err := decodeRow(row)
			if err != nil {
				return nil, err
			}
			targetKeys := merge.KeyFields{Name: row.NormName, Email: row.NormEmail, Phone: row.NormPhone}
			matched := s.filler.agreement(targetKeys, auxKeys)
			if len(matched) < 2 {
				continue
			}
			entries := copyMissing(&rec, auxRec, mappings, aux.Name, strings.Join(matched, " & "))
			if len(entries) == 0 {
				continue
			}
			if err := s.updateRow(row.Pos, rec); err != nil {
				return nil, err
			}
			filledThisPass[row.Pos] = struct{}{}
			log = append(log, entries...)
		}
	}

	s.logger.Info("store fill pass complete",
		zap.String("source", aux.Name),
		zap.Int("recordsFilled", len(filledThisPass)),
		zap.Int("fieldsCopied", len(log)))
	return log, nil
}

// lookup fetches rows still needing fill that share any normalized
// key with the auxiliary record, ordered by position.
func (s *Store) lookup(keys merge.KeyFields) ([]storeRow, error) {
	var clauses []string
	var args []interface{}
	if keys.Name != "" {
		clauses = append(clauses, "norm_name = ?")
		args = append(args, keys.Name)
	}
	if keys.Email != "" {
		clauses = append(clauses, "norm_email = ?")
		args = append(args, keys.Email)
	}
	if keys.Phone != "" {
		clauses = append(clauses, "norm_phone = ?")
		args = append(args, keys.Phone)
	}

	query := `SELECT pos, row, norm_name, norm_email, norm_phone, needs_fill, fields
		FROM contacts WHERE needs_fill = 1 AND (` + strings.Join(clauses, " OR ") + `) ORDER BY pos`

	var rows []storeRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	return rows, nil
}

func (s *Store) updateRow(pos int, rec model.Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding row %d: %w", rec.Row, err)
	}
	needs := 0
	if s.rowNeedsFill(rec) {
		needs = 1
	}
	if _, err := s.db.Exec(`UPDATE contacts SET fields = ?, needs_fill = ? WHERE pos = ?`,
		string(fields), needs, pos); err != nil {
		return fmt.Errorf("updating row %d: %w", rec.Row, err)
	}
	return nil
}

// Export reads the full target back out in original order.
func (s *Store) Export(name string) (*model.Dataset, error) {
	var rows []storeRow
	if err := s.db.Select(&rows, `SELECT pos, row, norm_name, norm_email, norm_phone, needs_fill, fields
		FROM contacts ORDER BY pos`); err != nil {
		return nil, fmt.Errorf("exporting store: %w", err)
	}

	ds := model.NewDataset(name, s.headers)
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		ds.Append(rec)
	}
	return ds, nil
}

// rowNeedsFill decides the needs_fill flag. Without explicit
// mappings the fillable columns depend on each auxiliary source, so
// every row stays eligible.
func (s *Store) rowNeedsFill(rec model.Record) bool {
	if len(s.mappings) == 0 {
		return true
	}
	return s.filler.needsFill(rec, s.mappings)
}

func decodeRow(row storeRow) (model.Record, error) {
	fields := make(map[string]string)
	if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
		return model.Record{}, fmt.Errorf("decoding row %d: %w", row.Row, err)
	}
	return model.Record{Row: row.Row, Fields: fields}, nil
}
