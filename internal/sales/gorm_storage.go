package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type saleRecord struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)"`
	SaleDate      time.Time        `gorm:"not null;index"`
	UserID        string           `gorm:"type:varchar(64);not null;index"`
	Status        string           `gorm:"type:varchar(16);not null;index"`
	PaymentMethod string           `gorm:"type:varchar(16);not null"`
	TotalAmount   Money            `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time        `gorm:"not null"`
	UpdatedAt     time.Time        `gorm:"not null"`
	Items         []saleItemRecord `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (saleRecord) TableName() string { return "sales" }

type saleItemRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SaleID      string `gorm:"type:varchar(36);not null;index"`
	Position    int    `gorm:"not null"`
	ProductID   int64  `gorm:"not null"`
	Name        string `gorm:"not null"`
	PriceAtSale Money  `gorm:"type:decimal(12,2);not null"`
	Quantity    int    `gorm:"not null"`
}

func (saleItemRecord) TableName() string { return "sale_items" }

// Migrate creates or updates the sales tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&saleRecord{}, &saleItemRecord{})
}

// GormStorage persists sales in a SQL database through GORM.
type GormStorage struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (g *GormStorage) Insert(ctx context.Context, sale *Sale) error {
	now := g.now()
	rec := toRecord(sale)
	rec.ID = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	for i := range rec.Items {
		rec.Items[i].SaleID = rec.ID
	}

	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	sale.ID = rec.ID
	sale.CreatedAt = now
	sale.UpdatedAt = now
	return nil
}

func (g *GormStorage) FindByID(ctx context.Context, id string) (*Sale, error) {
	var rec saleRecord
	err := g.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find sale %s: %w", id, err)
	}
	return rec.toSale(), nil
}

func (g *GormStorage) Find(ctx context.Context, filter Filter) ([]*Sale, error) {
	q := g.db.WithContext(ctx).Preload("Items", orderedItems)
	if filter.OwnerID != "" {
		q = q.Where("user_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var recs []saleRecord
	if err := q.Order("sale_date DESC").Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	sales := make([]*Sale, 0, len(recs))
	for i := range recs {
		sales = append(sales, recs[i].toSale())
	}
	return sales, nil
}

// Update rewrites the sale row and replaces its items in one transaction.
func (g *GormStorage) Update(ctx context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	now := g.now()
	rec := toRecord(sale)

	var createdAt time.Time
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current saleRecord
		if err := tx.Select("id", "created_at").Where("id = ?", sale.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		createdAt = current.CreatedAt

		if err := tx.Model(&saleRecord{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
			"sale_date":      rec.SaleDate,
			"user_id":        rec.UserID,
			"status":         rec.Status,
			"payment_method": rec.PaymentMethod,
			"total_amount":   rec.TotalAmount,
			"updated_at":     now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&saleItemRecord{}).Error; err != nil {
			return err
		}
		for i := range rec.Items {
			rec.Items[i].SaleID = sale.ID
		}
		return tx.Create(&rec.Items).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update sale %s: %w", sale.ID, err)
	}
	sale.CreatedAt = createdAt
	sale.UpdatedAt = now
	return nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toRecord(s *Sale) saleRecord {
	rec := saleRecord{
		ID:            s.ID,
		SaleDate:      s.SaleDate.UTC(),
		UserID:        s.OwnerID,
		Status:        string(s.Status),
		PaymentMethod: string(s.PaymentMethod),
		TotalAmount:   s.TotalAmount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Items:         make([]saleItemRecord, 0, len(s.Items)),
	}
	for i, item := range s.Items {
		rec.Items = append(rec.Items, saleItemRecord{
			SaleID:      s.ID,
			Position:    i + 1,
			ProductID:   item.ProductID,
			Name:        item.Name,
			PriceAtSale: item.PriceAtSale,
			Quantity:    item.Quantity,
		})
	}
	return rec
}

func (r *saleRecord) toSale() *Sale {
	s := &Sale{
		ID:            r.ID,
		SaleDate:      r.SaleDate.UTC(),
		OwnerID:       r.UserID,
		Status:        Status(r.Status),
		PaymentMethod: PaymentMethod(r.PaymentMethod),
		TotalAmount:   r.TotalAmount,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
		Items:         make([]SaleItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		s.Items = append(s.Items, SaleItem{
			ProductID:   item.ProductID,
			Name:        item.Name,
			PriceAtSale: item.PriceAtSale,
			Quantity:    item.Quantity,
		})
	}
	return s
}
