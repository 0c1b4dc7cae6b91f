package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hydrozap/internal/common"
)

// JSONValue stores an arbitrary JSON tree in a jsonb column.
type JSONValue json.RawMessage

func (j JSONValue) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

func (j *JSONValue) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	*j = append((*j)[0:0], bytes...)
	return nil
}

// Document - one stored subtree, keyed by its slash path
type Document struct {
	Path      string    `gorm:"primaryKey;size:512"`
	Data      JSONValue `gorm:"type:jsonb"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "hydrozap_documents"
}

// PostgresStore implements the document tree over a single jsonb table.
// Writes land at the exact path given; reads merge the closest ancestor row,
// the exact row and all descendant rows into one tree, so the view is the
// same no matter which granularity wrote the data.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, path string) (any, error) {
	segs := splitPath(path)
	clean := strings.Join(segs, "/")

	var rows []Document
	q := p.db.WithContext(ctx)
	if clean == "" {
		q = q.Order("path")
	} else {
		prefixes := pathPrefixes(segs)
		q = q.Where("path = ? OR path LIKE ? OR path IN ?", clean, clean+"/%", prefixes).Order("path")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, common.Upstreamf("document read failed: %v", err)
	}

	var result any
	for _, row := range rows {
		var value any
		if err := json.Unmarshal([]byte(row.Data), &value); err != nil {
			continue
		}
		switch {
		case row.Path == clean:
			result = mergeValues(result, value)
		case clean == "" || strings.HasPrefix(row.Path, clean+"/"):
			// Descendant row: wrap its value in the intermediate maps.
			rel := splitPath(strings.TrimPrefix(row.Path, clean))
			result = mergeValues(result, nestValue(rel, value))
		default:
			// Ancestor row: extract the subtree under the remaining segments.
			rel := splitPath(strings.TrimPrefix(clean, row.Path))
			if sub, ok := extractValue(value, rel); ok {
				result = mergeValues(result, sub)
			}
		}
	}
	return result, nil
}

func (p *PostgresStore) Set(ctx context.Context, path string, value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return err
	}
	data, _ := json.Marshal(normalized)

	segs := splitPath(path)
	clean := strings.Join(segs, "/")

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.clearSubtree(tx, segs, clean); err != nil {
			return err
		}
		return tx.Save(&Document{Path: clean, Data: JSONValue(data)}).Error
	})
	if err != nil {
		return common.Upstreamf("document write failed: %v", err)
	}
	return nil
}

func (p *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	current, err := p.Get(ctx, path)
	if err != nil {
		return err
	}
	target, ok := current.(map[string]any)
	if !ok {
		target = make(map[string]any)
	}
	for k, v := range fields {
		if v == nil {
			delete(target, k)
			continue
		}
		normalized, err := normalize(v)
		if err != nil {
			return err
		}
		target[k] = normalized
	}
	return p.Set(ctx, path, target)
}

func (p *PostgresStore) Delete(ctx context.Context, path string) error {
	segs := splitPath(path)
	clean := strings.Join(segs, "/")
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return p.clearSubtree(tx, segs, clean)
	})
	if err != nil {
		return common.Upstreamf("document delete failed: %v", err)
	}
	return nil
}

func (p *PostgresStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
	if err := p.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (p *PostgresStore) QueryEqual(ctx context.Context, path, child string, value any) (map[string]any, error) {
	raw, err := p.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	want := fmt.Sprint(value)
	out := make(map[string]any)
	for key, doc := range Children(raw) {
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if fmt.Sprint(fields[child]) == want {
			out[key] = fields
		}
	}
	return out, nil
}

// clearSubtree removes the exact row, all descendant rows, and the nested key
// inside any ancestor row that covers this path.
func (p *PostgresStore) clearSubtree(tx *gorm.DB, segs []string, clean string) error {
	if clean == "" {
		return tx.Where("1 = 1").Delete(&Document{}).Error
	}
	if err := tx.Where("path = ? OR path LIKE ?", clean, clean+"/%").Delete(&Document{}).Error; err != nil {
		return err
	}

	var ancestors []Document
	if err := tx.Where("path IN ?", pathPrefixes(segs)).Find(&ancestors).Error; err != nil {
		return err
	}
	for _, row := range ancestors {
		var value any
		if err := json.Unmarshal([]byte(row.Data), &value); err != nil {
			continue
		}
		rel := splitPath(strings.TrimPrefix(clean, row.Path))
		changed, ok := removeValue(value, rel)
		if !ok {
			continue
		}
		data, _ := json.Marshal(changed)
		row.Data = JSONValue(data)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// pathPrefixes returns every strict ancestor path ("a", "a/b" for "a/b/c").
func pathPrefixes(segs []string) []string {
	prefixes := []string{}
	for i := 1; i < len(segs); i++ {
		prefixes = append(prefixes, strings.Join(segs[:i], "/"))
	}
	if len(prefixes) == 0 {
		// gorm needs a non-empty IN list
		prefixes = append(prefixes, "\x00")
	}
	return prefixes
}

func nestValue(segs []string, value any) any {
	for i := len(segs) - 1; i >= 0; i-- {
		value = map[string]any{segs[i]: value}
	}
	return value
}

func extractValue(value any, segs []string) (any, bool) {
	for _, seg := range segs {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// removeValue deletes the node at segs inside value; reports whether
// anything changed.
func removeValue(value any, segs []string) (any, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	m, ok := value.(map[string]any)
	if !ok {
		return value, false
	}
	if len(segs) == 1 {
		if _, exists := m[segs[0]]; !exists {
			return value, false
		}
		delete(m, segs[0])
		return value, true
	}
	child, exists := m[segs[0]]
	if !exists {
		return value, false
	}
	changed, did := removeValue(child, segs[1:])
	m[segs[0]] = changed
	return value, did
}

// mergeValues overlays b on top of a, deep-merging maps.
func mergeValues(a, b any) any {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if !aok || !bok {
		if b != nil {
			return b
		}
		return a
	}
	for k, v := range bm {
		am[k] = mergeValues(am[k], v)
	}
	return am
}
