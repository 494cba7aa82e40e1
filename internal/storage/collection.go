package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

// Collection names a record collection. The names and their declared
// indexes are the public contract of the store.
type Collection string

const (
	Earnings    Collection = "earnings"
	Trades      Collection = "trades"
	Activities  Collection = "activities"
	Miners      Collection = "miners"
	Tasks       Collection = "tasks"
	Projections Collection = "projections"
	Settings    Collection = "settings"
)

type collectionSpec struct {
	model   func() interface{}
	indexes map[string]string // index name -> column
}

var collections = map[Collection]collectionSpec{
	Earnings: {
		model:   func() interface{} { return &Earning{} },
		indexes: map[string]string{"date": "date", "platformName": "platform_name", "category": "category"},
	},
	Trades: {
		model:   func() interface{} { return &Trade{} },
		indexes: map[string]string{"date": "date", "exchange": "exchange", "tradeType": "trade_type"},
	},
	Activities: {
		model:   func() interface{} { return &Activity{} },
		indexes: map[string]string{"date": "date", "platformName": "platform_name", "category": "category"},
	},
	Miners: {
		model:   func() interface{} { return &Miner{} },
		indexes: map[string]string{"minerName": "miner_name", "status": "status"},
	},
	Tasks: {
		model:   func() interface{} { return &Task{} },
		indexes: map[string]string{"platformName": "platform_name", "frequency": "frequency"},
	},
	Projections: {
		model:   func() interface{} { return &Projection{} },
		indexes: map[string]string{"date": "date"},
	},
}

var allCollections = []Collection{Earnings, Trades, Activities, Miners, Tasks, Projections}

// Indexes lists the declared secondary indexes of the collection.
func (c Collection) Indexes() []string {
	def, ok := collections[c]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(def.indexes))
	for name := range def.indexes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Record is implemented by every id-keyed collection row.
type Record interface {
	Collection() Collection
	RecordID() ID
	SetRecordID(ID)
}

// Dated is a record carrying an ISO YYYY-MM-DD date field.
type Dated interface {
	Record
	RecordDate() string
}

type recordPtr[T any] interface {
	*T
	Record
}

type datedPtr[T any] interface {
	*T
	Dated
}

func collectionOf[T any, P recordPtr[T]]() Collection {
	return P(new(T)).Collection()
}

// Add inserts rec and returns its id. A zero id is assigned by the store; a
// supplied id that already exists fails on the key constraint.
func (s *Store) Add(ctx context.Context, rec Record) (ID, error) {
	op := "add " + string(rec.Collection())
	db, err := s.conn(ctx, op)
	if err != nil {
		return 0, err
	}
	if err := db.Create(rec).Error; err != nil {
		return 0, apperrors.NewStorageError(op, err)
	}
	return rec.RecordID(), nil
}

// Update upserts rec by id.
func (s *Store) Update(ctx context.Context, rec Record) error {
	c := rec.Collection()
	op := "update " + string(c)
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}
	if !db.Migrator().HasTable(string(c)) {
		return apperrors.NewStorageError(op, fmt.Errorf("collection %q does not exist", c))
	}
	if err := db.Save(rec).Error; err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return nil
}

// Delete removes the record with the given id. Deleting an absent id is not
// an error.
func (s *Store) Delete(ctx context.Context, c Collection, id ID) error {
	op := "delete " + string(c)
	db, err := s.conn(ctx, op)
	if err != nil {
		return err
	}
	if _, ok := collections[c]; !ok {
		return apperrors.NewStorageError(op, fmt.Errorf("unknown collection %q", c))
	}
	if err := db.Exec("DELETE FROM "+string(c)+" WHERE id = ?", id).Error; err != nil {
		return apperrors.NewStorageError(op, err)
	}
	return nil
}

// Get returns the record with the given id, or nil when absent.
func Get[T any, P recordPtr[T]](ctx context.Context, s *Store, id ID) (*T, error) {
	op := "get " + string(collectionOf[T, P]())
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	var out T
	err = db.Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return &out, nil
}

// GetAll returns every record of the collection in id order.
func GetAll[T any, P recordPtr[T]](ctx context.Context, s *Store) ([]T, error) {
	op := "get all " + string(collectionOf[T, P]())
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	out := []T{}
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return out, nil
}

// GetByIndex returns records whose declared index field equals value.
func GetByIndex[T any, P recordPtr[T]](ctx context.Context, s *Store, field string, value interface{}) ([]T, error) {
	c := collectionOf[T, P]()
	op := "get " + string(c) + " by " + field
	db, err := s.conn(ctx, op)
	if err != nil {
		return nil, err
	}

	column, ok := collections[c].indexes[field]
	if !ok {
		return nil, apperrors.NewStorageError(op, fmt.Errorf("index %q not declared on %s", field, c))
	}

	out := []T{}
	if err := db.Where(column+" = ?", value).Order("id").Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return out, nil
}

// GetByDateRange returns records whose date lies in [start, end]. Dates are
// ISO strings and compare lexically.
func GetByDateRange[T any, P datedPtr[T]](ctx context.Context, s *Store, start, end string) ([]T, error) {
	all, err := GetAll[T, P](ctx, s)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(all))
	for i := range all {
		d := P(&all[i]).RecordDate()
		if d >= start && d <= end {
			out = append(out, all[i])
		}
	}
	return out, nil
}
