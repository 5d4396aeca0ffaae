package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/facturacion-backend/internal/models"
)

// StockLedger is the single writer of Article.Stock. Every method takes the
// enclosing transaction handle so a failed invoice mutation rolls the stock
// delta back together with everything else.
type StockLedger struct{}

// Reserve consumes qty units of an article's stock (line creation path).
func (l StockLedger) Reserve(tx *gorm.DB, articleID uint, qty int) error {
	return l.Adjust(tx, articleID, qty)
}

// Restore gives qty units back (line removal / invoice void path).
func (l StockLedger) Restore(tx *gorm.DB, articleID uint, qty int) error {
	return l.Adjust(tx, articleID, -qty)
}

// Adjust applies a signed stock delta: positive consumes, negative restores.
// The UPDATE itself carries the non-negativity guard, so even if a pre-check
// raced with a concurrent commit the stock can never go below zero.
func (l StockLedger) Adjust(tx *gorm.DB, articleID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	art, err := l.lockArticle(tx, articleID)
	if err != nil {
		return err
	}
	if delta > 0 && art.Stock < delta {
		return &InsufficientStockError{ArticleID: articleID, Requested: delta, Available: art.Stock}
	}
	res := tx.Model(&models.Article{}).
		Where("id = ? AND stock >= ?", articleID, delta).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race between the read and the guarded UPDATE.
		return &InsufficientStockError{ArticleID: articleID, Requested: delta, Available: art.Stock}
	}
	return nil
}

// lockArticle loads the article row, taking a row lock on engines that
// support SELECT FOR UPDATE. sqlite (used by the test harness) does not; the
// guarded UPDATE in Adjust is the authoritative check either way.
func (StockLedger) lockArticle(tx *gorm.DB, articleID uint) (*models.Article, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var art models.Article
	if err := q.First(&art, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &art, nil
}
